package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// StalePruner removes stored records that the latest completed run did not
// touch (deactivated properties, units taken off the online listing) and
// emits a NATS event describing the cleanup.
type StalePruner struct {
	logger    *zap.Logger
	db        DBExecutor
	publisher EventPublisher
}

// DBExecutor defines minimal subset of pgxpool.Pool needed for execution.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventPublisher publishes a JSON event under a subject suffix.
type EventPublisher interface {
	Publish(ctx context.Context, suffix string, v any) error
}

const pruneStaleQuery = `
	DELETE FROM integration.t_rentmanager_record
	WHERE s_kind = $1 AND s_run_id <> $2;
`

// NewStalePruner constructs the pruner. pub may be nil.
func NewStalePruner(logger *zap.Logger, db DBExecutor, pub EventPublisher) *StalePruner {
	return &StalePruner{
		logger:    logger,
		db:        db,
		publisher: pub,
	}
}

// RunOnce deletes rows of sum.Kind not written by sum.RunID. A run that
// synced nothing is ignored so an empty listing never wipes the table, and a
// run with sink errors is ignored because a failed upsert leaves a live row
// stamped with an older run ID.
func (p *StalePruner) RunOnce(ctx context.Context, sum *model.SyncSummary) (int64, error) {
	if sum == nil || sum.Synced == 0 {
		p.logger.Info("stale_pruner.skipped", zap.String("reason", "nothing synced"))
		return 0, nil
	}
	if sum.SinkErrors > 0 {
		p.logger.Warn("stale_pruner.skipped",
			zap.String("reason", "sink errors during run"),
			zap.String("kind", sum.Kind),
			zap.String("run_id", sum.RunID),
			zap.Int("sink_errors", sum.SinkErrors))
		return 0, nil
	}

	start := time.Now()
	tag, err := p.db.Exec(ctx, pruneStaleQuery, sum.Kind, sum.RunID)
	if err != nil {
		p.logger.Error("stale_pruner.prune_failed",
			zap.String("kind", sum.Kind),
			zap.String("run_id", sum.RunID),
			zap.Error(err))
		return 0, err
	}
	removed := tag.RowsAffected()

	if p.publisher != nil {
		event := map[string]any{
			"event":       "evt.rentmanager.records.pruned.v1",
			"kind":        sum.Kind,
			"run_id":      sum.RunID,
			"removed":     removed,
			"timestamp":   time.Now().UTC(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err := p.publisher.Publish(ctx, "pruned", event); err != nil {
			p.logger.Warn("stale_pruner.nats_publish_failed", zap.Error(err))
		}
	}

	p.logger.Info("stale_pruner.success",
		zap.String("kind", sum.Kind),
		zap.Int64("removed", removed),
		zap.Duration("duration", time.Since(start)))
	return removed, nil
}
