package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"cmsapi/internal/audit"
	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
	"cmsapi/internal/repository/memory"
	"cmsapi/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	kv    *memory.KVMemory
	store *repository.Store
	clock *clock.Manual
	eval  *Evaluator
}

func newFixture(t *testing.T, days ...int) fixture {
	t.Helper()
	kv := memory.NewKVMemory()
	store := repository.NewStore(kv)
	c := clock.NewManual(base)
	eval := NewEvaluator(store, audit.NewTrail(store, c), StaticConfig(thresholds(t, days...)), c, nil)
	return fixture{kv: kv, store: store, clock: c, eval: eval}
}

func (f fixture) addDocument(t *testing.T, doc model.Document) {
	t.Helper()
	require.NoError(t, f.store.Documents.Save(context.Background(), &doc))
}

func TestEvaluatorTick_PersistsRemindersAndAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 90, 60, 30, 7)
	f.addDocument(t, model.Document{ID: "d1", Title: "Gas safety", ExpiryDate: base.Add(30 * day)})

	sum, err := f.eval.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Generated)

	doc, err := f.store.Documents.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []int{30}, doc.RemindersSent)
	assert.Equal(t, int64(2), doc.Version)

	notes, err := f.store.Notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.StatusPending, notes[0].Status)

	recs, err := f.store.AuditRecords.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Generated 1 expiry reminders", recs[0].Description)
	assert.Nil(t, recs[0].ActorID)
}

func TestEvaluatorTick_SecondTickIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30)
	f.addDocument(t, model.Document{ID: "d1", ExpiryDate: base.Add(30 * day)})

	_, err := f.eval.Tick(ctx)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	sum, err := f.eval.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Generated)

	notes, _ := f.store.Notifications.List(ctx)
	assert.Len(t, notes, 1)
	recs, _ := f.store.AuditRecords.List(ctx)
	assert.Len(t, recs, 1, "no audit record when nothing was generated")
}

func TestEvaluatorTick_NothingDueWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30)
	f.addDocument(t, model.Document{ID: "d1", ExpiryDate: base.Add(300 * day)})

	sum, err := f.eval.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Generated)

	recs, err := f.store.AuditRecords.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEvaluatorPreview_WritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 90, 60, 30, 7)
	f.addDocument(t, model.Document{ID: "d1", Title: "Gas safety", ExpiryDate: base.Add(400 * day)})

	at := base.Add(370 * day)
	notes, sum, err := f.eval.Preview(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Generated)
	require.Len(t, notes, 1)
	assert.Equal(t, 30, notes[0].Threshold)
	assert.Equal(t, at, notes[0].CreatedAt)

	doc, err := f.store.Documents.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.RemindersSent)
	assert.Equal(t, int64(1), doc.Version)
	stored, err := f.store.Notifications.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	recs, err := f.store.AuditRecords.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	sum, err = f.eval.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Generated, "the real clock is not inside any window")
}

func TestEvaluatorTick_PersistenceFailureRetriesNextTick(t *testing.T) {
	ctx := context.Background()
	doc := model.Document{ID: "d1", Title: "Permit", ExpiryDate: base.Add(30 * day)}
	body := []byte(`{"id":"d1","title":"Permit","expiry_date":"` + doc.ExpiryDate.Format(time.RFC3339) + `"}`)

	kv := new(mocks.MockKV)
	kv.On("List", mock.Anything, repository.KindDocuments).
		Return([]repository.Record{{Kind: repository.KindDocuments, ID: "d1", Version: 1, Body: body}}, nil)
	kv.On("Apply", mock.Anything, mock.MatchedBy(func(puts []repository.Put) bool {
		return len(puts) == 3 && puts[0].Kind == repository.KindDocuments && puts[0].ExpectVersion == 1
	})).Return(repository.ErrPersistence).Twice()

	store := repository.NewStore(kv)
	c := clock.NewManual(base)
	eval := NewEvaluator(store, audit.NewTrail(store, c), StaticConfig(thresholds(t, 30)), c, nil)

	_, err := eval.Tick(ctx)
	assert.ErrorIs(t, err, repository.ErrPersistence)

	// The stored document was never advanced, so the next tick proposes the same batch.
	_, err = eval.Tick(ctx)
	assert.ErrorIs(t, err, repository.ErrPersistence)
	kv.AssertNumberOfCalls(t, "Apply", 2)
}

// racingKV applies a user edit to a document just before the first batch lands.
type racingKV struct {
	*memory.KVMemory
	edit func()
	done bool
}

func (r *racingKV) Apply(ctx context.Context, puts ...repository.Put) error {
	if !r.done && r.edit != nil {
		r.done = true
		r.edit()
	}
	return r.KVMemory.Apply(ctx, puts...)
}

func TestEvaluatorTick_ConcurrentEditAbortsBatch(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewKVMemory()
	kv := &racingKV{KVMemory: mem}
	store := repository.NewStore(kv)
	c := clock.NewManual(base)
	eval := NewEvaluator(store, audit.NewTrail(store, c), StaticConfig(thresholds(t, 30)), c, nil)

	doc := model.Document{ID: "d1", Title: "Permit", ExpiryDate: base.Add(30 * day)}
	require.NoError(t, store.Documents.Save(ctx, &doc))

	kv.edit = func() {
		cur, err := store.Documents.Get(ctx, "d1")
		require.NoError(t, err)
		cur.Title = "Permit (renewed)"
		require.NoError(t, store.Documents.Save(ctx, cur))
	}

	_, err := eval.Tick(ctx)
	assert.ErrorIs(t, err, repository.ErrConflict)

	notes, _ := store.Notifications.List(ctx)
	assert.Empty(t, notes, "no partial batch")
	recs, _ := store.AuditRecords.List(ctx)
	assert.Empty(t, recs)

	sum, err := eval.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Generated)
	got, err := store.Documents.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Permit (renewed)", got.Title)
	assert.Equal(t, []int{30}, got.RemindersSent)
}

func TestEvaluatorTick_CancelledContextPersistsNothing(t *testing.T) {
	f := newFixture(t, 30)
	f.addDocument(t, model.Document{ID: "d1", ExpiryDate: base.Add(30 * day)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.eval.Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	doc, err := f.store.Documents.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.RemindersSent)
}

type configFunc func() (config.ReminderConfig, error)

func (f configFunc) ReminderConfig(context.Context) (config.ReminderConfig, error) { return f() }

func TestEvaluatorTick_ReadsConfigEachTick(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVMemory()
	store := repository.NewStore(kv)
	c := clock.NewManual(base)

	days := []int{60}
	src := configFunc(func() (config.ReminderConfig, error) { return config.NewReminderConfig(days) })
	eval := NewEvaluator(store, audit.NewTrail(store, c), src, c, nil)

	doc := model.Document{ID: "d1", ExpiryDate: base.Add(14 * day)}
	require.NoError(t, store.Documents.Save(ctx, &doc))

	sum, err := eval.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Generated)

	days = []int{60, 14}
	sum, err = eval.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Generated)
}

func TestEvaluatorTick_ConfigErrorIsReturned(t *testing.T) {
	f := newFixture(t, 30)
	boom := errors.New("settings unavailable")
	f.eval.source = configFunc(func() (config.ReminderConfig, error) { return config.ReminderConfig{}, boom })

	_, err := f.eval.Tick(context.Background())
	assert.ErrorIs(t, err, boom)
}
