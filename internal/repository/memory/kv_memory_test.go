package memory

import (
	"context"
	"errors"
	"testing"

	"cmsapi/internal/model"
	"cmsapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVMemory_InsertGetList(t *testing.T) {
	ctx := context.Background()
	kv := NewKVMemory()

	require.NoError(t, kv.Apply(ctx,
		repository.Put{Kind: "tasks", ID: "b", Body: []byte(`{"id":"b"}`)},
		repository.Put{Kind: "tasks", ID: "a", Body: []byte(`{"id":"a"}`)},
	))

	rec, err := kv.Get(ctx, "tasks", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	recs, err := kv.List(ctx, "tasks")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID, "list keeps insertion order")

	_, err = kv.Get(ctx, "tasks", "zzz")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestKVMemory_ApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	kv := NewKVMemory()
	require.NoError(t, kv.Apply(ctx, repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{"v":1}`)}))

	err := kv.Apply(ctx,
		repository.Put{Kind: "notifications", ID: "n1", Body: []byte(`{}`)},
		repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{"v":2}`), ExpectVersion: 7},
	)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = kv.Get(ctx, "notifications", "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound, "insert must not survive a failed batch")

	rec, err := kv.Get(ctx, "documents", "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(rec.Body))
}

func TestKVMemory_VersionedUpdate(t *testing.T) {
	ctx := context.Background()
	kv := NewKVMemory()
	require.NoError(t, kv.Apply(ctx, repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{}`)}))

	require.NoError(t, kv.Apply(ctx, repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{"x":1}`), ExpectVersion: 1}))
	err := kv.Apply(ctx, repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{"x":2}`), ExpectVersion: 1})
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = kv.Apply(ctx, repository.Put{Kind: "documents", ID: "d1", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, repository.ErrConflict, "duplicate insert")
}

func TestKVMemory_FailWith(t *testing.T) {
	ctx := context.Background()
	kv := NewKVMemory()
	kv.FailWith(errors.New("offline"))

	err := kv.Apply(ctx, repository.Put{Kind: "tasks", ID: "t", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, repository.ErrPersistence)
	_, err = kv.List(ctx, "tasks")
	assert.ErrorIs(t, err, repository.ErrPersistence)

	kv.FailWith(nil)
	assert.NoError(t, kv.Apply(ctx, repository.Put{Kind: "tasks", ID: "t", Body: []byte(`{}`)}))
}

func TestCollectionRoundTripKeepsVersion(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(NewKVMemory())

	doc := &model.Document{ID: "d1", Title: "Insurance", RemindersSent: []int{}}
	require.NoError(t, store.Documents.Save(ctx, doc))

	got, err := store.Documents.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	got.RemindersSent = append(got.RemindersSent, 30)
	require.NoError(t, store.Documents.Save(ctx, got))

	again, err := store.Documents.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Version)
	assert.True(t, again.HasFired(30))

	assert.ErrorIs(t, store.Documents.Save(ctx, got), repository.ErrConflict, "stale copy")
}
