package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS integration;
	CREATE TABLE IF NOT EXISTS integration.t_rentmanager_record (
		s_kind      TEXT        NOT NULL,
		n_id        BIGINT      NOT NULL,
		s_run_id    TEXT        NOT NULL,
		b_degraded  BOOLEAN     NOT NULL DEFAULT FALSE,
		j_data      JSONB       NOT NULL,
		dt_synced   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (s_kind, n_id)
	);
`

const upsertRecordQuery = `
	INSERT INTO integration.t_rentmanager_record (
		s_kind,
		n_id,
		s_run_id,
		b_degraded,
		j_data,
		dt_synced
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (s_kind, n_id)
	DO UPDATE SET
		s_run_id = EXCLUDED.s_run_id,
		b_degraded = EXCLUDED.b_degraded,
		j_data = CASE
			WHEN EXCLUDED.b_degraded THEN integration.t_rentmanager_record.j_data
			ELSE EXCLUDED.j_data
		END,
		dt_synced = EXCLUDED.dt_synced;
`

// EnsureSchema creates the record table when Postgres is configured.
func (s *HybridStore) EnsureSchema(ctx context.Context) error {
	if s.pg == nil {
		return nil
	}
	if _, err := s.pg.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// upsertRecord inserts or updates the record row keyed by (kind, id).
// A degraded record refreshes the run stamp but keeps the stored j_data.
func (s *HybridStore) upsertRecord(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal %s %d: %w", rec.Kind, rec.ID, err)
	}

	_, err = s.pg.Exec(ctx, upsertRecordQuery,
		rec.Kind,     // s_kind
		rec.ID,       // n_id
		rec.RunID,    // s_run_id
		rec.Degraded, // b_degraded
		data,         // j_data
		rec.SyncedAt, // dt_synced
	)
	if err != nil {
		s.logger.Error("store.record_upsert_failed",
			zap.String("kind", rec.Kind),
			zap.Int64("id", rec.ID),
			zap.Error(err))
		return fmt.Errorf("upsert %s %d: %w", rec.Kind, rec.ID, err)
	}

	s.logger.Debug("store.record_upsert",
		zap.String("kind", rec.Kind),
		zap.Int64("id", rec.ID),
		zap.String("run_id", rec.RunID))
	return nil
}
