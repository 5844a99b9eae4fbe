package delivery

import (
	"slices"
	"time"

	"cmsapi/internal/model"
)

// NextPending returns the index of the oldest pending notification, or -1.
func NextPending(notes []model.Notification) int {
	next := -1
	for i, n := range notes {
		if n.Status != model.StatusPending {
			continue
		}
		if next < 0 || n.Before(notes[next]) {
			next = i
		}
	}
	return next
}

// Resolve turns a broadcast into the explicit set of users currently holding
// one of its roles. Explicit recipients are returned as they are.
func Resolve(r model.Recipients, users []model.User) model.Recipients {
	if r.Kind != model.RecipientsBroadcast {
		return r
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if slices.Contains(r.Roles, u.Role) {
			ids = append(ids, u.ID)
		}
	}
	return model.Explicit(ids...)
}

// DeliverNextPending marks the oldest pending notification as sent at now.
// The returned notification is a copy; notes is not modified. ok is false when
// nothing is pending.
func DeliverNextPending(notes []model.Notification, users []model.User, now time.Time) (model.Notification, bool) {
	i := NextPending(notes)
	if i < 0 {
		return model.Notification{}, false
	}
	n := notes[i]
	n.Recipients = Resolve(n.Recipients, users)
	n.ReadBy = slices.Clone(n.ReadBy)
	n.Status = model.StatusSent
	at := now
	n.DeliveredAt = &at
	return n, true
}
