package model

import (
	"slices"
	"time"
)

type NotificationKind string

const (
	KindExpiryReminder NotificationKind = "ExpiryReminder"
	KindCustom         NotificationKind = "Custom"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "Pending"
	StatusSent    NotificationStatus = "Sent"
)

type RecipientsKind string

const (
	RecipientsExplicit  RecipientsKind = "explicit"
	RecipientsBroadcast RecipientsKind = "broadcast"
)

// Recipients is either an explicit set of user ids or a broadcast to every
// user holding one of Roles. Broadcasts are resolved to an explicit set at
// delivery time.
type Recipients struct {
	Kind    RecipientsKind `json:"kind"`
	UserIDs []string       `json:"user_ids,omitempty"`
	Roles   []Role         `json:"roles,omitempty"`
}

// Explicit addresses the given users.
func Explicit(userIDs ...string) Recipients {
	return Recipients{Kind: RecipientsExplicit, UserIDs: userIDs}
}

// BroadcastToRoles addresses whoever holds one of roles when the notification is delivered.
func BroadcastToRoles(roles ...Role) Recipients {
	return Recipients{Kind: RecipientsBroadcast, Roles: roles}
}

// Staff is the default broadcast audience.
func Staff() Recipients { return BroadcastToRoles(RoleAdmin, RoleSupervisor) }

// Includes reports whether a viewer with the given id and role is addressed.
func (r Recipients) Includes(userID string, role Role) bool {
	switch r.Kind {
	case RecipientsExplicit:
		return slices.Contains(r.UserIDs, userID)
	case RecipientsBroadcast:
		return slices.Contains(r.Roles, role)
	default:
		return false
	}
}

// Notification is a message queued for delivery.
type Notification struct {
	Meta
	ID               string             `json:"id"`
	Kind             NotificationKind   `json:"kind"`
	Title            string             `json:"title"`
	Text             string             `json:"text,omitempty"`
	SourceDocumentID string             `json:"source_document_id,omitempty"`
	Threshold        int                `json:"threshold,omitempty"`
	Recipients       Recipients         `json:"recipients"`
	Status           NotificationStatus `json:"status"`
	ReadBy           []string           `json:"read_by"`
	CreatedAt        time.Time          `json:"created_at"`
	DeliveredAt      *time.Time         `json:"delivered_at,omitempty"`
}

func (n Notification) EntityID() string { return n.ID }

// IsReadBy reports whether the viewer has marked the notification read.
func (n Notification) IsReadBy(userID string) bool {
	return slices.Contains(n.ReadBy, userID)
}

// VisibleTo reports whether the viewer is among the recipients.
func (n Notification) VisibleTo(userID string, role Role) bool {
	return n.Recipients.Includes(userID, role)
}

// Before orders notifications oldest first, ties broken by id.
func (n Notification) Before(o Notification) bool {
	if !n.CreatedAt.Equal(o.CreatedAt) {
		return n.CreatedAt.Before(o.CreatedAt)
	}
	return n.ID < o.ID
}
