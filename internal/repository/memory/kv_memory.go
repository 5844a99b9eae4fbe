package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cmsapi/internal/repository"
)

type entry struct {
	rec repository.Record
	seq uint64
}

// KVMemory implements repository.KV in process memory. It backs the service
// when no database is configured and is used throughout the tests.
type KVMemory struct {
	mu   sync.RWMutex
	data map[string]map[string]*entry
	seq  uint64
	now  func() time.Time
	fail error
}

// NewKVMemory creates an empty store.
func NewKVMemory() *KVMemory {
	return &KVMemory{
		data: make(map[string]map[string]*entry),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.KV = (*KVMemory)(nil)

// FailWith makes every following call return err wrapped as a persistence
// failure, until called again with nil.
func (s *KVMemory) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *KVMemory) Get(ctx context.Context, kind, id string) (repository.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(); err != nil {
		return repository.Record{}, err
	}
	e, ok := s.data[kind][id]
	if !ok {
		return repository.Record{}, repository.ErrNotFound
	}
	return copyRecord(e.rec), nil
}

func (s *KVMemory) List(ctx context.Context, kind string) ([]repository.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(); err != nil {
		return nil, err
	}
	entries := make([]*entry, 0, len(s.data[kind]))
	for _, e := range s.data[kind] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]repository.Record, len(entries))
	for i, e := range entries {
		out[i] = copyRecord(e.rec)
	}
	return out, nil
}

// Apply checks every put against current versions before writing any of them.
func (s *KVMemory) Apply(ctx context.Context, puts ...repository.Put) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(puts))
	for _, p := range puts {
		key := p.Kind + "/" + p.ID
		e, exists := s.data[p.Kind][p.ID]
		switch {
		case seen[key]:
			return conflict(p)
		case p.ExpectVersion == 0 && exists:
			return conflict(p)
		case p.ExpectVersion != 0 && (!exists || e.rec.Version != p.ExpectVersion):
			return conflict(p)
		}
		seen[key] = true
	}

	now := s.now()
	for _, p := range puts {
		body := append([]byte(nil), p.Body...)
		if p.ExpectVersion == 0 {
			if s.data[p.Kind] == nil {
				s.data[p.Kind] = make(map[string]*entry)
			}
			s.seq++
			s.data[p.Kind][p.ID] = &entry{
				rec: repository.Record{Kind: p.Kind, ID: p.ID, Version: 1, Body: body, CreatedAt: now},
				seq: s.seq,
			}
			continue
		}
		e := s.data[p.Kind][p.ID]
		e.rec.Body = body
		e.rec.Version++
	}
	return nil
}

func (s *KVMemory) failure() error {
	if s.fail == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", repository.ErrPersistence, s.fail)
}

func conflict(p repository.Put) error {
	return fmt.Errorf("%w: %w: %s %s at version %d", repository.ErrPersistence, repository.ErrConflict, p.Kind, p.ID, p.ExpectVersion)
}

func copyRecord(r repository.Record) repository.Record {
	r.Body = append([]byte(nil), r.Body...)
	return r
}
