package reminder

import (
	"testing"
	"time"

	"cmsapi/internal/config"
	"cmsapi/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func thresholds(t *testing.T, days ...int) config.ReminderConfig {
	t.Helper()
	cfg, err := config.NewReminderConfig(days)
	require.NoError(t, err)
	return cfg
}

func TestEvaluateReminders_ExactThreshold(t *testing.T) {
	cfg := thresholds(t, 90, 60, 30, 7)
	docs := []model.Document{{ID: "d1", Title: "Fire certificate", ExpiryDate: base.Add(30 * day)}}

	updated, notes, sum := EvaluateReminders(base, cfg, docs)

	require.Len(t, notes, 1)
	n := notes[0]
	assert.Equal(t, 30, n.Threshold)
	assert.Equal(t, model.KindExpiryReminder, n.Kind)
	assert.Equal(t, model.StatusPending, n.Status)
	assert.Equal(t, "d1", n.SourceDocumentID)
	assert.Equal(t, `Reminder: "Fire certificate" expires in 30 day(s)`, n.Title)
	assert.Equal(t, model.Staff(), n.Recipients)
	assert.Equal(t, base, n.CreatedAt)
	assert.NotEmpty(t, n.ID)

	require.Len(t, updated, 1)
	assert.Equal(t, []int{30}, updated[0].RemindersSent)
	assert.Equal(t, Summary{Generated: 1, Documents: 1}, sum)
}

func TestEvaluateReminders_Idempotent(t *testing.T) {
	cfg := thresholds(t, 90, 60, 30, 7)
	docs := []model.Document{
		{ID: "d1", Title: "Insurance", ExpiryDate: base.Add(30 * day)},
		{ID: "d2", Title: "Lift permit", ExpiryDate: base.Add(7 * day)},
	}

	updated, notes, _ := EvaluateReminders(base, cfg, docs)
	require.Len(t, notes, 2)

	_, again, sum := EvaluateReminders(base, cfg, updated)
	assert.Empty(t, again)
	assert.Zero(t, sum.Generated)
}

func TestEvaluateReminders_DoesNotModifyInput(t *testing.T) {
	cfg := thresholds(t, 30)
	sent := make([]int, 0, 4)
	docs := []model.Document{{ID: "d1", ExpiryDate: base.Add(30 * day), RemindersSent: sent}}

	updated, _, _ := EvaluateReminders(base, cfg, docs)

	require.Len(t, updated, 1)
	assert.Empty(t, docs[0].RemindersSent)
	assert.Zero(t, sent[:1][0], "backing array untouched")
	assert.Equal(t, []int{30}, updated[0].RemindersSent)
}

func TestEvaluateReminders_OneDayPastThreshold(t *testing.T) {
	cfg := thresholds(t, 90, 60, 30, 7)
	docs := []model.Document{{ID: "d1", ExpiryDate: base.Add(31 * day)}}

	updated, notes, sum := EvaluateReminders(base, cfg, docs)

	assert.Empty(t, updated)
	assert.Empty(t, notes)
	assert.Zero(t, sum.Generated)
}

func TestEvaluateReminders_WindowEdges(t *testing.T) {
	cfg := thresholds(t, 30)
	expiry := base.Add(60 * day)
	target := expiry.Add(-30 * day)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"just before window", target.Add(-12*time.Hour - time.Nanosecond), 0},
		{"window opens", target.Add(-12 * time.Hour), 1},
		{"target instant", target, 1},
		{"window closes", target.Add(14 * day), 1},
		{"just after window", target.Add(14*day + time.Nanosecond), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := []model.Document{{ID: "d1", ExpiryDate: expiry}}
			_, notes, _ := EvaluateReminders(tt.now, cfg, docs)
			assert.Len(t, notes, tt.want)
		})
	}
}

func TestEvaluateReminders_SkipsFiredThresholdAfterExpiryEdit(t *testing.T) {
	cfg := thresholds(t, 30)
	// Expiry pushed out after the 30 day reminder fired; the marker stays.
	docs := []model.Document{{ID: "d1", ExpiryDate: base.Add(30 * day), RemindersSent: []int{30}}}

	_, notes, _ := EvaluateReminders(base, cfg, docs)

	assert.Empty(t, notes)
}

func TestEvaluateReminders_LateDocumentGetsOnlyOpenWindows(t *testing.T) {
	cfg := thresholds(t, 90, 60, 30, 7)
	// Uploaded five days before expiry: only the 7 day window is still open.
	docs := []model.Document{{ID: "d1", ExpiryDate: base.Add(5 * day)}}

	updated, notes, _ := EvaluateReminders(base, cfg, docs)

	require.Len(t, notes, 1)
	assert.Equal(t, 7, notes[0].Threshold)
	assert.Equal(t, []int{7}, updated[0].RemindersSent)
}

func TestEvaluateReminders_OverlappingWindows(t *testing.T) {
	cfg := thresholds(t, 10, 7)
	docs := []model.Document{{ID: "d1", ExpiryDate: base.Add(7 * day)}}

	updated, notes, _ := EvaluateReminders(base, cfg, docs)

	require.Len(t, notes, 2)
	assert.Equal(t, 10, notes[0].Threshold)
	assert.Equal(t, 7, notes[1].Threshold)
	assert.Equal(t, []int{10, 7}, updated[0].RemindersSent)
	assert.Less(t, notes[0].ID, notes[1].ID)
}

func TestEvaluateReminders_EmptyConfig(t *testing.T) {
	docs := []model.Document{{ID: "d1", ExpiryDate: base}}

	updated, notes, _ := EvaluateReminders(base, config.ReminderConfig{}, docs)

	assert.Empty(t, updated)
	assert.Empty(t, notes)
}
