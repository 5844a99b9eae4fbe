package reminder

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cmsapi/internal/audit"
	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/logging"
	"cmsapi/internal/metrics"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// ConfigSource supplies the current thresholds. It is read on every tick.
type ConfigSource interface {
	ReminderConfig(ctx context.Context) (config.ReminderConfig, error)
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig config.ReminderConfig

func (s StaticConfig) ReminderConfig(context.Context) (config.ReminderConfig, error) {
	return config.ReminderConfig(s), nil
}

// Evaluator is the periodic reminder task.
type Evaluator struct {
	store   *repository.Store
	trail   *audit.Trail
	source  ConfigSource
	clock   clock.Clock
	metrics *metrics.Engine
	tracer  trace.Tracer
}

// NewEvaluator wires an evaluator. m may be nil.
func NewEvaluator(store *repository.Store, trail *audit.Trail, source ConfigSource, c clock.Clock, m *metrics.Engine) *Evaluator {
	return &Evaluator{
		store:   store,
		trail:   trail,
		source:  source,
		clock:   c,
		metrics: m,
		tracer:  otel.Tracer("cmsapi/reminder"),
	}
}

// Tick runs one evaluation. Updated documents, new notifications and the
// summary audit record are written in a single batch; on any error nothing is
// persisted and the next tick evaluates again from stored state.
func (e *Evaluator) Tick(ctx context.Context) (Summary, error) {
	ctx, span := e.tracer.Start(ctx, "reminder.tick")
	defer span.End()

	sum, err := e.tick(ctx)
	span.SetAttributes(attribute.Int("reminders.generated", sum.Generated))
	if err != nil {
		e.metrics.TickFailed("reminder")
		span.RecordError(err)
		span.SetStatus(codes.Error, "reminder tick failed")
		return Summary{}, err
	}
	return sum, nil
}

// Preview reports the reminders a tick at the given instant would raise from
// the stored documents and current thresholds. Nothing is written, so firing
// markers stay untouched.
func (e *Evaluator) Preview(ctx context.Context, at time.Time) ([]model.Notification, Summary, error) {
	cfg, docs, err := e.load(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	_, notes, sum := EvaluateReminders(at, cfg, docs)
	return notes, sum, nil
}

func (e *Evaluator) load(ctx context.Context) (config.ReminderConfig, []model.Document, error) {
	cfg, err := e.source.ReminderConfig(ctx)
	if err != nil {
		return config.ReminderConfig{}, nil, fmt.Errorf("load reminder config: %w", err)
	}
	docs, err := e.store.Documents.List(ctx)
	if err != nil {
		return config.ReminderConfig{}, nil, fmt.Errorf("list documents: %w", err)
	}
	return cfg, docs, nil
}

func (e *Evaluator) tick(ctx context.Context) (Summary, error) {
	cfg, docs, err := e.load(ctx)
	if err != nil {
		return Summary{}, err
	}

	updated, notes, sum := EvaluateReminders(e.clock.Now(), cfg, docs)
	if sum.Generated == 0 {
		return sum, nil
	}

	puts := make([]repository.Put, 0, len(updated)+len(notes)+1)
	for i := range updated {
		put, err := e.store.Documents.Stage(&updated[i])
		if err != nil {
			return Summary{}, err
		}
		puts = append(puts, put)
	}
	for i := range notes {
		put, err := e.store.Notifications.Stage(&notes[i])
		if err != nil {
			return Summary{}, err
		}
		puts = append(puts, put)
	}
	auditPut, _, err := e.trail.Stage("", fmt.Sprintf("Generated %d expiry reminders", sum.Generated))
	if err != nil {
		return Summary{}, err
	}
	puts = append(puts, auditPut)

	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("reminder tick abandoned: %w", err)
	}
	if err := e.store.KV.Apply(ctx, puts...); err != nil {
		return Summary{}, fmt.Errorf("persist reminders: %w", err)
	}

	e.metrics.RemindersGenerated(sum.Generated)
	logging.Info("reminder", "reminders_generated", map[string]any{
		"generated":  sum.Generated,
		"documents":  sum.Documents,
		"thresholds": cfg.String(),
	})
	return sum, nil
}
