package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/testhelpers"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore(testhelpers.SetupTestDB(t))
	ctx := context.Background()

	result := Aggregate(Scores{Technical: 80, HR: 70, Coding: 90}, 1, testConfig())
	require.NoError(t, store.Save(ctx, "sess-1", result))

	view, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", view.SessionID)
	assert.Equal(t, result.Overall, view.Overall)
	assert.Equal(t, result.Decision, view.Decision)
	assert.Equal(t, result.Strengths, view.Strengths)
}

func TestStoreSaveIsIdempotent(t *testing.T) {
	store := NewStore(testhelpers.SetupTestDB(t))
	ctx := context.Background()

	first := Aggregate(Scores{Technical: 80, HR: 70, Coding: 90}, 0, testConfig())
	require.NoError(t, store.Save(ctx, "sess-1", first))

	// a concurrent duplicate computation must not overwrite the report
	second := Aggregate(Scores{Technical: 10, HR: 10, Coding: 10}, 0, testConfig())
	require.NoError(t, store.Save(ctx, "sess-1", second))

	view, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, first.Overall, view.Overall)
}

func TestStoreGetNotReady(t *testing.T) {
	store := NewStore(testhelpers.SetupTestDB(t))

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}
