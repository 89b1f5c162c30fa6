package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/pkg/adapters/file"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "sessions")
	store := file.NewStore(dir)
	ctx := context.Background()

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "missing directory lists nothing")

	require.NoError(t, store.Save(ctx, "abc", domain.NewJourneyState("abc")))
	_, err = os.Stat(filepath.Join(dir, "abc.json"))
	require.NoError(t, err)

	// Leftovers of an interrupted save are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-abc-1.json"), []byte("{"), 0o644))
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, sessions)

	require.NoError(t, store.Delete(ctx, "never-saved"), "deleting a missing session is not an error")
}

func TestStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", "a.b"} {
		assert.Error(t, store.Save(ctx, id, domain.NewJourneyState(id)), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.NotErrorIs(t, err, domain.ErrSessionNotFound, id)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0o644))

	_, err := file.NewStore(dir).Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to unmarshal state")
}

func TestNewStore_Default(t *testing.T) {
	assert.Equal(t, file.DefaultSessionDir, file.NewStore("").BasePath)
}
