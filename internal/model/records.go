package model

import "time"

type TaskStatus string

const (
	TaskOpen TaskStatus = "Open"
	TaskDone TaskStatus = "Done"
)

type Approval string

const (
	ApprovalPending  Approval = "Pending"
	ApprovalApproved Approval = "Approved"
	ApprovalRejected Approval = "Rejected"
)

// Task is a unit of work assigned to a user.
type Task struct {
	Meta
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      TaskStatus `json:"status"`
	AssignedTo  string     `json:"assigned_to"`
	CreatedBy   string     `json:"created_by"`
	DueDate     time.Time  `json:"due_date"`
	Approval    Approval   `json:"approval"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (t Task) EntityID() string { return t.ID }

// Overdue reports whether the task is past due and not done.
func (t Task) Overdue(now time.Time) bool {
	return t.Status != TaskDone && t.DueDate.Before(now)
}

// Maintenance records service work done on an asset.
type Maintenance struct {
	Meta
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Asset           string     `json:"asset"`
	Category        string     `json:"category"`
	Vendor          string     `json:"vendor"`
	Cost            float64    `json:"cost"`
	Date            time.Time  `json:"date"`
	NextServiceDate *time.Time `json:"next_service_date,omitempty"`
	Notes           string     `json:"notes"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (m Maintenance) EntityID() string { return m.ID }

type AuditStatus string

const (
	AuditOpen   AuditStatus = "Open"
	AuditClosed AuditStatus = "Closed"
)

// CorrectiveAction is a follow-up raised by an audit finding.
type CorrectiveAction struct {
	ID      string     `json:"id"`
	Text    string     `json:"text"`
	OwnerID string     `json:"owner_id"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Status  TaskStatus `json:"status"`
}

// Audit is a compliance inspection, not to be confused with AuditRecord.
type Audit struct {
	Meta
	ID                string             `json:"id"`
	AuditDate         time.Time          `json:"audit_date"`
	AuditorID         string             `json:"auditor_id"`
	Findings          string             `json:"findings"`
	CorrectiveActions []CorrectiveAction `json:"corrective_actions"`
	Status            AuditStatus        `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
}

func (a Audit) EntityID() string { return a.ID }

// Settings are process-wide and editable by an admin.
type Settings struct {
	Meta
	SiteName     string `json:"site_name"`
	ReminderDays []int  `json:"reminder_days"`
}

// SettingsID is the key of the single settings record.
const SettingsID = "global"

func (s Settings) EntityID() string { return SettingsID }
