package model

import (
	"slices"
	"time"
)

// Attachment points at a file held in object storage.
type Attachment struct {
	Name        string `json:"name"`
	StoragePath string `json:"storage_path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Document is a compliance document with an expiry date.
// RemindersSent holds the day thresholds that already produced a reminder.
type Document struct {
	Meta
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Owner         string      `json:"owner"`
	DocType       string      `json:"doc_type"`
	ExpiryDate    time.Time   `json:"expiry_date"`
	RemindersSent []int       `json:"reminders_sent"`
	UploadedBy    string      `json:"uploaded_by"`
	Attachment    *Attachment `json:"attachment,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (d Document) EntityID() string { return d.ID }

// HasFired reports whether a reminder was already raised for the threshold.
func (d Document) HasFired(days int) bool {
	return slices.Contains(d.RemindersSent, days)
}
