package access

import (
	"errors"
	"fmt"

	"cmsapi/internal/model"
)

// ErrUnauthorized is returned when the gate denies a capability.
var ErrUnauthorized = errors.New("unauthorized")

// Capability names a guarded mutation.
type Capability string

const (
	CreateTask        Capability = "create_task"
	UpdateTask        Capability = "update_task"
	ApproveTask       Capability = "approve_task"
	CreateDocument    Capability = "create_document"
	UpdateDocument    Capability = "update_document"
	CreateMaintenance Capability = "create_maintenance"
	CreateAudit       Capability = "create_audit"
	CreateUser        Capability = "create_user"
	UpdateUser        Capability = "update_user"
	SendNotification  Capability = "send_notification"
	UpdateSettings    Capability = "update_settings"
)

// Capabilities lists every capability the gate knows.
var Capabilities = []Capability{
	CreateTask, UpdateTask, ApproveTask,
	CreateDocument, UpdateDocument,
	CreateMaintenance, CreateAudit,
	CreateUser, UpdateUser,
	SendNotification, UpdateSettings,
}

var known = func() map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(Capabilities))
	for _, c := range Capabilities {
		m[c] = struct{}{}
	}
	return m
}()

// grants holds the capabilities of every role except Admin, which has all of them.
var grants = map[model.Role]map[Capability]struct{}{
	model.RoleSupervisor: set(CreateTask, UpdateTask, ApproveTask, CreateDocument, UpdateDocument, CreateMaintenance),
	model.RoleAuditor:    set(CreateAudit),
	model.RoleUser:       {},
}

func set(caps ...Capability) map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		m[c] = struct{}{}
	}
	return m
}

// Allow reports whether role may exercise capability. Unknown roles and
// capabilities are denied.
func Allow(role model.Role, c Capability) bool {
	if _, ok := known[c]; !ok {
		return false
	}
	if role == model.RoleAdmin {
		return true
	}
	_, ok := grants[role][c]
	return ok
}

// Session identifies who is acting. It is passed explicitly into every mutation.
type Session struct {
	UserID string     `json:"user_id"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
}

// Anonymous reports whether the session carries no user.
func (s Session) Anonymous() bool { return s.UserID == "" }

// Authorize returns ErrUnauthorized if the session may not exercise c.
func Authorize(s Session, c Capability) error {
	if s.Anonymous() || !Allow(s.Role, c) {
		return fmt.Errorf("%w: %s may not %s", ErrUnauthorized, roleOrAnon(s), c)
	}
	return nil
}

func roleOrAnon(s Session) string {
	if s.Anonymous() {
		return "anonymous"
	}
	return string(s.Role)
}
