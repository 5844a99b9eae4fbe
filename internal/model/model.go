package model

import "strings"

// Package model contains domain models shared across layers.
// Types here carry no persistence or transport logic.

// Meta carries the storage version of a record. The version lives in the store,
// not in the serialized body, so it is excluded from JSON.
type Meta struct {
	Version int64 `json:"-"`
}

// EntityVersion returns the version the entity was read at (0 for new entities).
func (m *Meta) EntityVersion() int64 { return m.Version }

// SetEntityVersion is called by the repository after a read.
func (m *Meta) SetEntityVersion(v int64) { m.Version = v }

// Role is the sole input to access decisions.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RoleAuditor    Role = "Auditor"
	RoleUser       Role = "User"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleSupervisor, RoleAuditor, RoleUser}

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}
