package delivery

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cmsapi/internal/audit"
	"cmsapi/internal/clock"
	"cmsapi/internal/logging"
	"cmsapi/internal/metrics"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// Queue delivers pending notifications, one per tick.
type Queue struct {
	store   *repository.Store
	trail   *audit.Trail
	clock   clock.Clock
	metrics *metrics.Engine
	tracer  trace.Tracer
}

// NewQueue wires a delivery queue. m may be nil.
func NewQueue(store *repository.Store, trail *audit.Trail, c clock.Clock, m *metrics.Engine) *Queue {
	return &Queue{
		store:   store,
		trail:   trail,
		clock:   c,
		metrics: m,
		tracer:  otel.Tracer("cmsapi/delivery"),
	}
}

// Tick delivers the oldest pending notification, writing it together with its
// audit record. It returns nil when nothing was pending. On error the
// notification stays pending.
func (q *Queue) Tick(ctx context.Context) (*model.Notification, error) {
	ctx, span := q.tracer.Start(ctx, "delivery.tick")
	defer span.End()

	sent, err := q.tick(ctx)
	if err != nil {
		q.metrics.TickFailed("delivery")
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery tick failed")
		return nil, err
	}
	if sent != nil {
		span.SetAttributes(attribute.String("notification.id", sent.ID))
	}
	return sent, nil
}

func (q *Queue) tick(ctx context.Context) (*model.Notification, error) {
	notes, err := q.store.Notifications.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	pending := 0
	for _, n := range notes {
		if n.Status == model.StatusPending {
			pending++
		}
	}
	q.metrics.PendingNotifications(pending)
	if pending == 0 {
		return nil, nil
	}

	users, err := q.store.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sent, ok := DeliverNextPending(notes, users, q.clock.Now())
	if !ok {
		return nil, nil
	}

	put, err := q.store.Notifications.Stage(&sent)
	if err != nil {
		return nil, err
	}
	auditPut, _, err := q.trail.Stage("", "Sent notification: "+sent.Title)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("delivery tick abandoned: %w", err)
	}
	if err := q.store.KV.Apply(ctx, put, auditPut); err != nil {
		return nil, fmt.Errorf("persist delivery of %s: %w", sent.ID, err)
	}

	q.metrics.NotificationDelivered(string(sent.Kind))
	q.metrics.PendingNotifications(pending - 1)
	logging.Info("delivery", "notification_sent", map[string]any{
		"notification_id": sent.ID,
		"kind":            sent.Kind,
		"recipients":      len(sent.Recipients.UserIDs),
	})
	return &sent, nil
}
