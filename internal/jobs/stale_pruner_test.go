package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

type mockDB struct {
	sql      string
	args     []any
	affected string
	err      error
}

func (m *mockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.sql, m.args = sql, args
	return pgconn.NewCommandTag(m.affected), m.err
}

type mockPublisher struct {
	suffix string
	event  map[string]any
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, suffix string, v any) error {
	m.suffix = suffix
	m.event, _ = v.(map[string]any)
	return m.err
}

func TestStalePruner_DeletesRowsFromOtherRuns(t *testing.T) {
	db := &mockDB{affected: "DELETE 3"}
	pub := &mockPublisher{}
	p := NewStalePruner(zap.NewNop(), db, pub)

	removed, err := p.RunOnce(context.Background(), &model.SyncSummary{RunID: "run-9", Kind: model.KindUnit, Synced: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.Contains(t, db.sql, "DELETE FROM integration.t_rentmanager_record")
	assert.Equal(t, []any{model.KindUnit, "run-9"}, db.args)

	assert.Equal(t, "pruned", pub.suffix)
	assert.Equal(t, "unit", pub.event["kind"])
	assert.EqualValues(t, 3, pub.event["removed"])
}

func TestStalePruner_SkipsEmptyRun(t *testing.T) {
	db := &mockDB{}
	p := NewStalePruner(zap.NewNop(), db, nil)

	removed, err := p.RunOnce(context.Background(), &model.SyncSummary{RunID: "r", Kind: model.KindProperty})
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Empty(t, db.sql, "no query for a run that synced nothing")

	removed, err = p.RunOnce(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestStalePruner_SkipsRunWithSinkErrors(t *testing.T) {
	db := &mockDB{affected: "DELETE 1"}
	pub := &mockPublisher{}
	p := NewStalePruner(zap.NewNop(), db, pub)

	removed, err := p.RunOnce(context.Background(), &model.SyncSummary{
		RunID: "run-b", Kind: model.KindProperty, Synced: 3, SinkErrors: 1,
	})
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Empty(t, db.sql, "a failed upsert must not let older rows be deleted")
	assert.Empty(t, pub.suffix)
}

func TestStalePruner_ExecFailure(t *testing.T) {
	pub := &mockPublisher{}
	p := NewStalePruner(zap.NewNop(), &mockDB{err: errors.New("db down")}, pub)

	_, err := p.RunOnce(context.Background(), &model.SyncSummary{RunID: "r", Kind: model.KindProperty, Synced: 1})
	require.Error(t, err)
	assert.Empty(t, pub.suffix, "no event after a failed prune")
}

func TestStalePruner_PublishFailureIsNotFatal(t *testing.T) {
	p := NewStalePruner(zap.NewNop(), &mockDB{affected: "DELETE 0"}, &mockPublisher{err: errors.New("nats down")})

	removed, err := p.RunOnce(context.Background(), &model.SyncSummary{RunID: "r", Kind: model.KindProperty, Synced: 1})
	require.NoError(t, err)
	assert.Zero(t, removed)
}
