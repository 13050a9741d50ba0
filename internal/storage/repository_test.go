package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/config"
	"vehicle-health-monitor/internal/monitor"
)

func TestUnconfiguredStore(t *testing.T) {
	ctx := context.Background()
	var s *Store

	assert.ErrorIs(t, s.EnsureSchema(ctx), ErrNotConfigured)

	_, err := s.InsertFrames(ctx, "a", []monitor.Frame{{}})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.ListFrames(ctx, "a", 10)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.ListSessions(ctx, 10)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, s.DeleteSession(ctx, "a"), ErrNotConfigured)

	// Close on a nil store is a no-op.
	s.Close()
}

func TestNewPoolRequiresDSN(t *testing.T) {
	_, err := NewPool(context.Background(), config.DatabaseConfig{})
	require.Error(t, err)

	_, err = NewPool(context.Background(), config.DatabaseConfig{DSN: "postgres://localhost:notaport/vhmon"})
	require.Error(t, err)
}
