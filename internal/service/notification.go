package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cmsapi/internal/access"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// NotificationInput is a custom message. Without recipients it is broadcast to
// administrators and supervisors.
type NotificationInput struct {
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	RecipientIDs []string `json:"recipient_ids"`
}

// Inbox is what a viewer sees of the notifications addressed to them.
type Inbox struct {
	Items  []model.Notification `json:"data"`
	Unread int                  `json:"unread"`
}

// NotificationService defines the use cases for notifications.
type NotificationService interface {
	// Send queues a custom notification for delivery.
	Send(ctx context.Context, s access.Session, in NotificationInput) (*model.Notification, error)
	// Inbox lists the notifications addressed to the viewer, newest first.
	Inbox(ctx context.Context, viewer access.Session) (*Inbox, error)
	// MarkRead records that the viewer has read a notification addressed to them.
	MarkRead(ctx context.Context, viewer access.Session, id string) (*model.Notification, error)
}

type notificationService struct {
	d Deps
}

// NewNotificationService constructs a new NotificationService.
func NewNotificationService(d Deps) NotificationService {
	return &notificationService{d: d}
}

func (s *notificationService) Send(ctx context.Context, sess access.Session, in NotificationInput) (*model.Notification, error) {
	if err := gate(s.d, sess, access.SendNotification); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	recipients := model.Staff()
	if len(in.RecipientIDs) > 0 {
		userIDs, err := s.knownUsers(ctx, in.RecipientIDs)
		if err != nil {
			return nil, err
		}
		recipients = model.Explicit(userIDs...)
	}
	now := s.d.Clock.Now()
	n := &model.Notification{
		ID:         ids.NewAt(now),
		Kind:       model.KindCustom,
		Title:      title,
		Text:       in.Text,
		Recipients: recipients,
		Status:     model.StatusPending,
		ReadBy:     []string{},
		CreatedAt:  now,
	}
	put, err := s.d.Store.Notifications.Stage(n)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Queued notification: "+n.Title, put); err != nil {
		return nil, err
	}
	committed(n)
	return n, nil
}

// knownUsers deduplicates ids and checks that every one names an account.
func (s *notificationService) knownUsers(ctx context.Context, userIDs []string) ([]string, error) {
	users, err := s.d.Store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if slices.Contains(out, id) {
			continue
		}
		if !slices.ContainsFunc(users, func(u model.User) bool { return u.ID == id }) {
			return nil, invalid("unknown recipient %q", id)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *notificationService) Inbox(ctx context.Context, viewer access.Session) (*Inbox, error) {
	if viewer.Anonymous() {
		return nil, access.ErrUnauthorized
	}
	notes, err := s.d.Store.Notifications.List(ctx)
	if err != nil {
		return nil, err
	}
	box := &Inbox{Items: []model.Notification{}}
	for _, n := range notes {
		if !n.VisibleTo(viewer.UserID, viewer.Role) {
			continue
		}
		box.Items = append(box.Items, n)
		if !n.IsReadBy(viewer.UserID) {
			box.Unread++
		}
	}
	slices.SortStableFunc(box.Items, func(a, b model.Notification) int {
		switch {
		case b.Before(a):
			return -1
		case a.Before(b):
			return 1
		}
		return 0
	})
	return box, nil
}

// MarkRead is a viewer-state change: it passes no capability check and writes
// no audit record. Broadcasts can be marked at once; explicitly addressed
// notifications only once Sent. Marking an already read notification is a
// no-op. A version conflict with a concurrent delivery is retried with a
// fresh read.
func (s *notificationService) MarkRead(ctx context.Context, viewer access.Session, id string) (*model.Notification, error) {
	if viewer.Anonymous() {
		return nil, access.ErrUnauthorized
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	var err error
	for range markReadAttempts {
		var n *model.Notification
		n, err = s.markRead(ctx, viewer, id)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}
	return nil, err
}

const markReadAttempts = 3

func (s *notificationService) markRead(ctx context.Context, viewer access.Session, id string) (*model.Notification, error) {
	n, err := s.d.Store.Notifications.Get(ctx, id)
	if err != nil {
		return nil, notFound("notification", id, err)
	}
	if !n.VisibleTo(viewer.UserID, viewer.Role) {
		return nil, fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	if n.Status == model.StatusPending && n.Recipients.Kind == model.RecipientsExplicit {
		return nil, fmt.Errorf("%w: notification %s", ErrNotDelivered, id)
	}
	if n.IsReadBy(viewer.UserID) {
		return n, nil
	}
	n.ReadBy = append(n.ReadBy, viewer.UserID)
	if err := s.d.Store.Notifications.Save(ctx, n); err != nil {
		return nil, err
	}
	committed(n)
	return n, nil
}
