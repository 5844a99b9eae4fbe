package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cmsapi/internal/repository"
)

// KVPostgres is a PostgreSQL implementation of repository.KV.
// Records live in a single table keyed by (kind, id) with a JSONB body.
type KVPostgres struct {
	db *sql.DB
}

// NewKVPostgres creates a new KVPostgres store.
func NewKVPostgres(db *sql.DB) *KVPostgres {
	return &KVPostgres{db: db}
}

var _ repository.KV = (*KVPostgres)(nil)

// Get fetches one record.
func (r *KVPostgres) Get(ctx context.Context, kind, id string) (repository.Record, error) {
	const q = `
		SELECT kind, id, version, body, created_at
		FROM records
		WHERE kind = $1 AND id = $2
	`
	var rec repository.Record
	err := r.db.QueryRowContext(ctx, q, kind, id).Scan(
		&rec.Kind,
		&rec.ID,
		&rec.Version,
		&rec.Body,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Record{}, repository.ErrNotFound
		}
		return repository.Record{}, persistence(err)
	}
	return rec, nil
}

// List returns every record of a kind, oldest first.
func (r *KVPostgres) List(ctx context.Context, kind string) ([]repository.Record, error) {
	const q = `
		SELECT kind, id, version, body, created_at
		FROM records
		WHERE kind = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, persistence(err)
	}
	defer rows.Close()

	items := make([]repository.Record, 0)
	for rows.Next() {
		var rec repository.Record
		if err := rows.Scan(
			&rec.Kind,
			&rec.ID,
			&rec.Version,
			&rec.Body,
			&rec.CreatedAt,
		); err != nil {
			return nil, persistence(err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence(err)
	}
	return items, nil
}

// Apply writes all puts in one transaction. Inserts use ON CONFLICT DO NOTHING and
// updates are guarded by version, so zero affected rows means a conflict.
func (r *KVPostgres) Apply(ctx context.Context, puts ...repository.Put) (err error) {
	if len(puts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qInsert = `
		INSERT INTO records (kind, id, version, body, created_at, updated_at)
		VALUES ($1, $2, 1, $3, now(), now())
		ON CONFLICT (kind, id) DO NOTHING
	`
	const qUpdate = `
		UPDATE records
		SET body = $3, version = version + 1, updated_at = now()
		WHERE kind = $1 AND id = $2 AND version = $4
	`
	for _, p := range puts {
		var res sql.Result
		if p.ExpectVersion == 0 {
			res, err = tx.ExecContext(ctx, qInsert, p.Kind, p.ID, p.Body)
		} else {
			res, err = tx.ExecContext(ctx, qUpdate, p.Kind, p.ID, p.Body, p.ExpectVersion)
		}
		if err != nil {
			return persistence(err)
		}
		n, rerr := res.RowsAffected()
		if rerr != nil {
			err = persistence(rerr)
			return err
		}
		if n == 0 {
			err = fmt.Errorf("%w: %w: %s %s at version %d", repository.ErrPersistence, repository.ErrConflict, p.Kind, p.ID, p.ExpectVersion)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return persistence(err)
	}
	return nil
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", repository.ErrPersistence, err)
}
