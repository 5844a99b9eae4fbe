package reminder

import (
	"fmt"
	"time"

	"cmsapi/internal/config"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
)

const (
	day = 24 * time.Hour

	// Lookback is how long before the target instant a reminder may fire.
	Lookback = 12 * time.Hour
	// Lookahead is how long after the target instant a missed reminder still fires.
	Lookahead = 14 * day
)

// Summary describes the outcome of one evaluation.
type Summary struct {
	Generated int `json:"generated"`
	Documents int `json:"documents"`
}

// Window returns the inclusive firing window of a threshold for an expiry date.
func Window(expiry time.Time, days int) (start, end time.Time) {
	target := expiry.Add(-time.Duration(days) * day)
	return target.Add(-Lookback), target.Add(Lookahead)
}

// InWindow reports whether now falls in the firing window.
func InWindow(now, expiry time.Time, days int) bool {
	start, end := Window(expiry, days)
	return !now.Before(start) && !now.After(end)
}

// Title is the notification title for a document reaching a threshold.
func Title(doc model.Document, days int) string {
	return fmt.Sprintf("Reminder: %q expires in %d day(s)", doc.Title, days)
}

// EvaluateReminders checks every document against every threshold at one instant.
// It returns copies of the documents whose RemindersSent grew, the new pending
// notifications, and a summary. The input slice is not modified.
func EvaluateReminders(now time.Time, cfg config.ReminderConfig, docs []model.Document) ([]model.Document, []model.Notification, Summary) {
	var (
		updated []model.Document
		notes   []model.Notification
	)
	for _, doc := range docs {
		var fired []int
		for _, d := range cfg.Thresholds {
			if doc.HasFired(d) || !InWindow(now, doc.ExpiryDate, d) {
				continue
			}
			fired = append(fired, d)
			notes = append(notes, model.Notification{
				ID:               ids.NewAt(now),
				Kind:             model.KindExpiryReminder,
				Title:            Title(doc, d),
				SourceDocumentID: doc.ID,
				Threshold:        d,
				Recipients:       model.Staff(),
				Status:           model.StatusPending,
				ReadBy:           []string{},
				CreatedAt:        now,
			})
		}
		if len(fired) == 0 {
			continue
		}
		next := doc
		next.RemindersSent = append(append(make([]int, 0, len(doc.RemindersSent)+len(fired)), doc.RemindersSent...), fired...)
		updated = append(updated, next)
	}
	return updated, notes, Summary{Generated: len(notes), Documents: len(updated)}
}
