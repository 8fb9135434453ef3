package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocalRoundTrip(t *testing.T) {
	m := NewMemoryLocal()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "quest-storage", []byte(`{"quests":[]}`)))
	got, err := m.Get(ctx, "quest-storage")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"quests":[]}`), got)
}

func TestMemoryLocalMissingKey(t *testing.T) {
	m := NewMemoryLocal()

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLocalDelete(t *testing.T) {
	m := NewMemoryLocal()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "STREAK_LOST", []byte("7")))
	require.NoError(t, m.Delete(ctx, "STREAK_LOST"))
	_, err := m.Get(ctx, "STREAK_LOST")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is fine.
	assert.NoError(t, m.Delete(ctx, "STREAK_LOST"))
}

func TestMemoryLocalCopiesValues(t *testing.T) {
	m := NewMemoryLocal()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'X'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}
