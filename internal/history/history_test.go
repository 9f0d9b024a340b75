package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newStore(t)

	for i, prompt := range []string{"first", "second", "third"} {
		require.NoError(t, store.Append(&Record{
			Kind:      "image",
			Prompt:    prompt,
			Model:     "flux",
			Seed:      int64(i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := store.Recent(2, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// 新的在前
	assert.Equal(t, "third", records[0].Prompt)
	assert.Equal(t, "second", records[1].Prompt)
	assert.NotEmpty(t, records[0].ID)
}

func TestRecent_KindFilter(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Append(&Record{Kind: "image", Prompt: "a"}))
	require.NoError(t, store.Append(&Record{Kind: "text", Prompt: "b"}))
	require.NoError(t, store.Append(&Record{Kind: "image", Prompt: "c"}))

	records, err := store.Recent(10, "image")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "image", r.Kind)
	}
}

func TestPrune(t *testing.T) {
	store := newStore(t)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Append(&Record{Kind: "image", Prompt: "old", CreatedAt: old}))
	require.NoError(t, store.Append(&Record{Kind: "image", Prompt: "fresh"}))

	removed, err := store.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	records, err := store.Recent(10, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].Prompt)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")
	store, err := Open(path, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(&Record{Kind: "text", Prompt: "x"}))
}
