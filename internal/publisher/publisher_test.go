package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

type published struct {
	subject string
	data    []byte
}

// fakeConn records every publish.
type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func TestNew_NilConn(t *testing.T) {
	_, err := New(nil, "evt.rentmanager", zap.NewNop())
	assert.Error(t, err)
}

func TestEmit_PublishesRecordUnderKindSubject(t *testing.T) {
	conn := &fakeConn{}
	p, err := New(conn, "evt.rentmanager", zap.NewNop())
	require.NoError(t, err)

	rec := model.Record{
		RunID:    "run-1",
		Kind:     model.KindProperty,
		ID:       42,
		SyncedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Data:     model.Property{PropertyID: 42, PropertyName: "Elm Court"},
	}
	require.NoError(t, p.Emit(context.Background(), rec))

	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "evt.rentmanager.property", conn.msgs[0].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "Elm Court", got["data"].(map[string]any)["property_name"])
	assert.Equal(t, "nats", p.Name())
}

func TestPublish_ConnError(t *testing.T) {
	p, _ := New(&fakeConn{err: errors.New("nats: connection closed")}, "", zap.NewNop())

	err := p.Publish(context.Background(), "summary", map[string]int{"seen": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish summary")
}

func TestPublish_CanceledContext(t *testing.T) {
	conn := &fakeConn{}
	p, _ := New(conn, "evt.rentmanager", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "summary", struct{}{}), context.Canceled)
	assert.Empty(t, conn.msgs)
}
