/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/zprobst/cloud-conveyor/internal/apperrors"
)

//go:embed postgres_migrations/*.sql
var postgresMigrations embed.FS

// MigratePostgres brings db's schema up to date for PostgresStore,
// applying any migration under postgres_migrations that hasn't run
// yet. It is safe to call on every process start; goose tracks applied
// versions in its own goose_db_version table.
func MigratePostgres(db *sql.DB) error {
	goose.SetBaseFS(postgresMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to set goose dialect")
	}
	if err := goose.Up(db, "postgres_migrations"); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to apply pipeline_snapshots migrations")
	}
	return nil
}

// PostgresStore is a Store backed by PostgreSQL via sqlx/lib/pq,
// serializing each PipelineSnapshot as a JSONB payload in the
// pipeline_snapshots table. It is the restart-durable alternative to
// MemoryStore for deployments that already run Postgres rather than
// Redis.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-configured *sqlx.DB. The caller
// owns the connection pool's lifecycle (including Close) and must have
// run MigratePostgres against the same database beforehand.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save implements Store.
func (p *PostgresStore) Save(ctx context.Context, snap PipelineSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to marshal pipeline snapshot")
	}

	const query = `
		INSERT INTO pipeline_snapshots (id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	if _, err := p.db.ExecContext(ctx, query, snap.ID, payload); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to save snapshot for pipeline %s", snap.ID)
	}
	return nil
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context, id string) (PipelineSnapshot, bool, error) {
	var payload []byte
	err := p.db.GetContext(ctx, &payload, `SELECT payload FROM pipeline_snapshots WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return PipelineSnapshot{}, false, nil
	}
	if err != nil {
		return PipelineSnapshot{}, false, apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to load snapshot for pipeline %s", id)
	}

	var snap PipelineSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return PipelineSnapshot{}, false, apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to unmarshal snapshot for pipeline %s", id)
	}
	return snap, true, nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM pipeline_snapshots WHERE id = $1`, id); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to delete snapshot for pipeline %s", id)
	}
	return nil
}

// ListIDs implements Store.
func (p *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.SelectContext(ctx, &ids, `SELECT id FROM pipeline_snapshots ORDER BY id`); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to list pipeline snapshot ids")
	}
	return ids, nil
}

var _ Store = (*PostgresStore)(nil)
