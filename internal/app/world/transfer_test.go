package world

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemuria/internal/app/dump"
	"lemuria/internal/app/storage"
)

func writeDump(t *testing.T, store storage.DumpStore, name, content string) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), name, strings.NewReader(content)))
}

func readDump(t *testing.T, store storage.DumpStore, name string) string {
	t.Helper()
	rc, err := store.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

const (
	testAttributes = "atdump version 1\r\n0 Lemuria\r\n25 Welcome\r\n51 Y\r\n52 10\r\n11 1\r\n12 2\r\n13 3\r\n130 0.5\r\n"
	testElevation  = "elevdump version 1\r\n0 0 0 0 1 1 4 5 0 0 3 0\r\n"
	testProps      = "propdump version 3\r\n7 1700000000 1 2 3 4 5 6 8 4 0 tree.rwxleaf\r\n"
)

func TestImportThenExport(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	writeDump(t, store, "atlemuria.txt", testAttributes)
	writeDump(t, store, "elevlemuria.txt", testElevation)
	writeDump(t, store, "proplemuria.txt", testProps)

	repo := newFakeRepo()
	svc := newTestService(repo, fakeOnline{})
	tr := NewTransfer(repo, store, svc)
	ctx := context.Background()

	id, err := tr.Import(ctx, "lemuria")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.Len(t, repo.imported, 1)
	imported := repo.imported[0]
	assert.Equal(t, "Lemuria", imported.Name)
	require.Len(t, imported.Props, 1)
	assert.Equal(t, "tree.rwx", imported.Props[0].Name)
	assert.Equal(t, "leaf", *imported.Props[0].Desc)
	require.Len(t, imported.Nodes, 1)

	var attrs map[string]any
	require.NoError(t, json.Unmarshal([]byte(imported.Attributes), &attrs))
	assert.Equal(t, "Welcome", attrs["welcome"])

	require.NoError(t, tr.Export(ctx, "lemuria"))

	exported, err := dump.ParseAttributes(strings.NewReader(readDump(t, store, "export_atlemuria.txt")))
	require.NoError(t, err)
	original, err := dump.ParseAttributes(strings.NewReader(testAttributes))
	require.NoError(t, err)
	if diff := cmp.Diff(original, exported); diff != "" {
		t.Errorf("attribute round trip mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, testElevation, readDump(t, store, "export_elevlemuria.txt"))
	assert.Equal(t, testProps, readDump(t, store, "export_proplemuria.txt"))
}

func TestImportWithoutOptionalDumps(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	writeDump(t, store, "atsolo.txt", "atdump version 1\r\n25 Alone\r\n")

	repo := newFakeRepo()
	_, err = NewTransfer(repo, store, nil).Import(context.Background(), "solo")
	require.NoError(t, err)

	require.Len(t, repo.imported, 1)
	assert.Equal(t, "solo", repo.imported[0].Name)
	assert.Empty(t, repo.imported[0].Props)
	assert.Empty(t, repo.imported[0].Nodes)
}

func TestImportMissingAttributeDump(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	repo := newFakeRepo()
	_, err = NewTransfer(repo, store, nil).Import(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrDumpMissing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, repo.imported)
}

func TestImportMalformedDumpWritesNothing(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	writeDump(t, store, "atbad.txt", testAttributes)
	writeDump(t, store, "propbad.txt", "propdump version 3\r\n7 never 1 2 3 4 5 6 8 4 0 tree.rwxleaf\r\n")

	repo := newFakeRepo()
	_, err = NewTransfer(repo, store, nil).Import(context.Background(), "bad")
	assert.ErrorIs(t, err, dump.ErrMalformed)
	assert.Empty(t, repo.imported)
}

func TestExportUnknownWorld(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = NewTransfer(newFakeRepo(), store, nil).Export(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}
