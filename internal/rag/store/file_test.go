package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/internal/model"
)

func TestFileRegistry(t *testing.T) {
	ctx := context.Background()
	reg, err := OpenFileRegistry(ctx, RegistryPath(t.TempDir()))
	require.NoError(t, err)
	defer reg.Close()

	rec := &model.FileRecord{KBName: "kb_a", Filename: "a.pdf", ContentHash: "h1", Size: 10}
	require.NoError(t, reg.Add(ctx, rec))
	assert.Len(t, rec.ID, 26)
	require.NoError(t, reg.Add(ctx, &model.FileRecord{KBName: "kb_b", Filename: "b.txt", ContentHash: "h2", Size: 3}))

	found, err := reg.SearchByName(ctx, "a.pdf")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "kb_a", found[0].KBName)

	found, err = reg.SearchByHash(ctx, "h2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b.txt", found[0].Filename)

	found, err = reg.SearchByName(ctx, "missing.pdf")
	require.NoError(t, err)
	assert.Empty(t, found)

	n, err := reg.DeleteByName(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = reg.DeleteByName(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kb_b", all[0].KBName)

	n, err = reg.DeleteByKB(ctx, "kb_b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err = reg.SearchByKB(ctx, "kb_b")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFileRegistryReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), RegistryFile)

	reg, err := OpenFileRegistry(ctx, path)
	require.NoError(t, err)
	require.NoError(t, reg.Add(ctx, &model.FileRecord{KBName: "kb", Filename: "f.txt"}))
	require.NoError(t, reg.Close())

	reg, err = OpenFileRegistry(ctx, path)
	require.NoError(t, err)
	defer reg.Close()

	all, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
