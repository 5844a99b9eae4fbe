package repository

import (
	"context"
	"errors"
	"time"
)

// Package repository contains the data access layer. Every aggregate is stored
// as a versioned JSON record in a key-value store; implementations live in
// subpackages (postgres, memory).

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write expected a version the record no longer has.
	ErrConflict = errors.New("record version conflict")
	// ErrPersistence wraps any failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")
)

// Record kinds.
const (
	KindDocuments     = "documents"
	KindNotifications = "notifications"
	KindUsers         = "users"
	KindTasks         = "tasks"
	KindMaintenance   = "maintenance"
	KindAudits        = "audits"
	KindAuditRecords  = "audit_records"
	KindSettings      = "settings"
)

// Record is a stored value. Version starts at 1 and grows by one per update.
type Record struct {
	Kind      string
	ID        string
	Version   int64
	Body      []byte
	CreatedAt time.Time
}

// Put is one write inside a batch. ExpectVersion 0 inserts a new record and
// fails if one exists; any other value updates the record only if its current
// version matches.
type Put struct {
	Kind          string
	ID            string
	Body          []byte
	ExpectVersion int64
}

// KV is the storage contract: read one, list a kind, and apply a batch of
// writes atomically. Apply either persists every put or none.
type KV interface {
	// Get returns ErrNotFound if the record is missing.
	Get(ctx context.Context, kind, id string) (Record, error)

	// List returns all records of a kind ordered by creation time, then id.
	List(ctx context.Context, kind string) ([]Record, error)

	// Apply writes all puts in one transaction. A version mismatch fails the
	// whole batch with an error matching both ErrPersistence and ErrConflict.
	Apply(ctx context.Context, puts ...Put) error
}
