package audit

import (
	"context"
	"slices"
	"time"

	"cmsapi/internal/clock"
	"cmsapi/internal/ids"
	"cmsapi/internal/logging"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// New builds an audit record. An empty actorID records a system action.
func New(actorID, description string, now time.Time) model.AuditRecord {
	rec := model.AuditRecord{
		ID:          ids.NewAt(now),
		Description: description,
		Timestamp:   now,
	}
	if actorID != "" {
		id := actorID
		rec.ActorID = &id
	}
	return rec
}

// Trail appends audit records. Records are only ever inserted.
type Trail struct {
	records repository.Collection[model.AuditRecord, *model.AuditRecord]
	kv      repository.KV
	clock   clock.Clock
}

// NewTrail creates a trail over the store.
func NewTrail(store *repository.Store, c clock.Clock) *Trail {
	return &Trail{records: store.AuditRecords, kv: store.KV, clock: c}
}

// Stage builds a record and its insert so the caller can commit it in the same
// batch as the change it describes.
func (t *Trail) Stage(actorID, description string) (repository.Put, model.AuditRecord, error) {
	rec := New(actorID, description, t.clock.Now())
	put, err := t.records.Stage(&rec)
	return put, rec, err
}

// Record appends a stand-alone record. Failures are logged and returned; the
// caller's own action is not undone.
func (t *Trail) Record(ctx context.Context, actorID, description string) (model.AuditRecord, error) {
	put, rec, err := t.Stage(actorID, description)
	if err == nil {
		err = t.kv.Apply(ctx, put)
	}
	if err != nil {
		logging.Error("audit", "audit_record_lost", err, map[string]any{
			"actor":       rec.Actor(),
			"description": description,
		})
		return model.AuditRecord{}, err
	}
	return rec, nil
}

// List returns the newest records first. A limit <= 0 returns everything.
func (t *Trail) List(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	recs, err := t.records.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, func(a, b model.AuditRecord) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
