package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewJourneyState(sessionID)
		state.CurrentStepID = "national-insurance-number"
		state.MarkCompleted("check")
		state.Set("foo", "bar")
		state.Set("flag", true)

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentStepID, loaded.CurrentStepID)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, []string{"check"}, loaded.Completed)
		assert.Equal(t, "bar", loaded.Values["foo"])
		assert.Equal(t, true, loaded.Values["flag"])
		assert.Equal(t, domain.StateVersion, loaded.Version)
	})

	t.Run("Load returns an isolated copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Set("foo", "mutated")
		loaded.MarkCompleted("other")

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "bar", again.Values["foo"])
		assert.False(t, again.IsCompleted("other"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewJourneyState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewJourneyState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewJourneyState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
