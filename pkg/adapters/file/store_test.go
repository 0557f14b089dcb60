package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/branchflow/pkg/adapters/file"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunFlowStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_WritesExportDocument(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	flow := domain.Flow{
		Nodes: []domain.FlowNode{
			{ID: "1", Kind: domain.NodeKindStart, Text: "Hi", Options: []domain.Option{{Label: "Go", TargetID: "2"}}},
		},
	}

	require.NoError(t, store.Save(context.Background(), "support", flow))

	data, err := os.ReadFile(filepath.Join(dir, "support.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nextId": "2"`)
	assert.Contains(t, string(data), `"type": "start"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b", domain.Flow{}))
	require.NoError(t, store.Save(ctx, "a", domain.Flow{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{}"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		assert.Error(t, store.Save(ctx, id, domain.Flow{}), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".branchflow", "flows"), file.New("").BasePath)
}
