package model

import "time"

// SystemActor is shown for records without a user actor.
const SystemActor = "system"

// AuditRecord is an immutable activity log entry. A nil ActorID means the system acted.
type AuditRecord struct {
	Meta
	ID          string    `json:"id"`
	ActorID     *string   `json:"actor_id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func (a AuditRecord) EntityID() string { return a.ID }

// Actor returns the actor id or SystemActor.
func (a AuditRecord) Actor() string {
	if a.ActorID == nil {
		return SystemActor
	}
	return *a.ActorID
}
