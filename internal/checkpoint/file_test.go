package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-cli/internal/model"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Completed())
}

func TestFileStore_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "run.json")
	s := NewFileStore(path)
	ctx := context.Background()

	snap := &Snapshot{}
	snap.KeywordRecords.Set([]model.KeywordRecord{{Keyword: "inglés niños", Origin: model.KeywordOriginGenerated}})
	require.NoError(t, s.Save(ctx, snap))

	snap.EnrichedKeywords.Set([]model.EnrichedKeyword{{
		KeywordRecord: model.KeywordRecord{Keyword: "inglés niños"},
		Prompt:        "¿Dónde aprenden inglés los niños?",
	}})
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{StageKeywordRecords, StageEnrichedKeywords}, got.Completed())
	ek, _ := got.EnrichedKeywords.Get()
	assert.Equal(t, "¿Dónde aprenden inglés los niños?", ek[0].Prompt)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Completed())
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"foo": 1}`), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestFileStore_SaveHonoursCancellation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileStore(path).Save(ctx, &Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
