package blacklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Add(ctx, "bob"))
	require.NoError(t, store.Add(ctx, "bob"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestContains(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Add(ctx, "bob"))

	barred, err := store.Contains(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, barred)

	clear, err := store.Contains(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, clear)
}
