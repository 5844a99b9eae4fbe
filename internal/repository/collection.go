package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cmsapi/internal/model"
)

// Entity is implemented by pointers to model types embedding model.Meta.
type Entity interface {
	EntityID() string
	EntityVersion() int64
	SetEntityVersion(v int64)
}

// Collection is a typed view over one record kind.
type Collection[T any, P interface {
	*T
	Entity
}] struct {
	kv   KV
	kind string
}

// NewCollection binds a record kind to a model type.
func NewCollection[T any, P interface {
	*T
	Entity
}](kv KV, kind string) Collection[T, P] {
	return Collection[T, P]{kv: kv, kind: kind}
}

// Kind returns the record kind.
func (c Collection[T, P]) Kind() string { return c.kind }

// Get loads one entity with its version.
func (c Collection[T, P]) Get(ctx context.Context, id string) (*T, error) {
	rec, err := c.kv.Get(ctx, c.kind, id)
	if err != nil {
		return nil, err
	}
	return c.decode(rec)
}

// List loads every entity of the kind in creation order.
func (c Collection[T, P]) List(ctx context.Context) ([]T, error) {
	recs, err := c.kv.List(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// Stage encodes v as a put guarded by the version v was read at.
func (c Collection[T, P]) Stage(v *T) (Put, error) {
	p := P(v)
	body, err := json.Marshal(v)
	if err != nil {
		return Put{}, fmt.Errorf("encode %s %s: %w", c.kind, p.EntityID(), err)
	}
	return Put{Kind: c.kind, ID: p.EntityID(), Body: body, ExpectVersion: p.EntityVersion()}, nil
}

// Save writes v on its own.
func (c Collection[T, P]) Save(ctx context.Context, v *T) error {
	put, err := c.Stage(v)
	if err != nil {
		return err
	}
	return c.kv.Apply(ctx, put)
}

func (c Collection[T, P]) decode(rec Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Body, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", ErrPersistence, c.kind, rec.ID, err)
	}
	P(&v).SetEntityVersion(rec.Version)
	return &v, nil
}

// Store groups the collections of the application over one KV.
type Store struct {
	KV            KV
	Documents     Collection[model.Document, *model.Document]
	Notifications Collection[model.Notification, *model.Notification]
	Users         Collection[model.User, *model.User]
	Tasks         Collection[model.Task, *model.Task]
	Maintenance   Collection[model.Maintenance, *model.Maintenance]
	Audits        Collection[model.Audit, *model.Audit]
	AuditRecords  Collection[model.AuditRecord, *model.AuditRecord]
	Settings      Collection[model.Settings, *model.Settings]
}

// NewStore builds a Store over kv.
func NewStore(kv KV) *Store {
	return &Store{
		KV:            kv,
		Documents:     NewCollection[model.Document](kv, KindDocuments),
		Notifications: NewCollection[model.Notification](kv, KindNotifications),
		Users:         NewCollection[model.User](kv, KindUsers),
		Tasks:         NewCollection[model.Task](kv, KindTasks),
		Maintenance:   NewCollection[model.Maintenance](kv, KindMaintenance),
		Audits:        NewCollection[model.Audit](kv, KindAudits),
		AuditRecords:  NewCollection[model.AuditRecord](kv, KindAuditRecords),
		Settings:      NewCollection[model.Settings](kv, KindSettings),
	}
}

// IsNotFound reports whether err means the record is missing.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
