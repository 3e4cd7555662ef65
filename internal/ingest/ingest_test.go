package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
}

func writePerson(t *testing.T, root, id string, docs ...constants.DocumentType) {
	t.Helper()
	for _, dt := range docs {
		writeFile(t, filepath.Join(root, id, id+"_"+string(dt)+".png"))
	}
}

func TestDocumentTypeForFile(t *testing.T) {
	tests := []struct {
		name string
		want constants.DocumentType
		ok   bool
	}{
		{"p1_government_id.png", constants.GovernmentID, true},
		{"P1_BANK_STATEMENT.JPG", constants.BankStatement, true},
		{"employment_letter.tiff", constants.EmploymentLetter, true},
		{"p1_government_id_back.png", "", false},
		{"selfie.png", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DocumentTypeForFile(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanDataset(t *testing.T) {
	root := t.TempDir()
	writePerson(t, root, "p2", constants.DocumentTypes...)
	writePerson(t, root, "p1", constants.DocumentTypes...)
	writePerson(t, root, "p3", constants.GovernmentID, constants.BankStatement)
	writeFile(t, filepath.Join(root, "p1", "notes.txt"))
	writeFile(t, filepath.Join(root, ".cache", "x_government_id.png"))
	writeFile(t, filepath.Join(root, "README.md"))

	res, err := ScanDataset(root, nil)
	require.NoError(t, err)

	require.Len(t, res.Persons, 2)
	assert.Equal(t, "p1", res.Persons[0].PersonID)
	assert.Equal(t, "p2", res.Persons[1].PersonID)
	assert.Equal(t, filepath.Join(root, "p1", "p1_bank_statement.png"), res.Persons[0].Documents[constants.BankStatement])

	require.Len(t, res.Incomplete, 1)
	assert.Equal(t, []constants.DocumentType{constants.EmploymentLetter}, res.Incomplete[0].Missing())

	assert.Equal(t, DirStats{Persons: 3, Complete: 2, Incomplete: 1, Images: 8, Ignored: 1}, res.Stats)
}

func TestScanDatasetErrors(t *testing.T) {
	_, err := ScanDataset("", nil)
	assert.Error(t, err)
	_, err = ScanDataset(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestOpenDatasetZip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "dataset.zip")
	writeZip(t, archive,
		"p1/p1_government_id.png",
		"p1/p1_bank_statement.jpg",
		"p1/p1_employment_letter.jpeg",
		"p2/p2_government_id.png",
	)

	res, cleanup, err := OpenDataset(archive, nil)
	require.NoError(t, err)
	require.Len(t, res.Persons, 1)
	dir := res.Persons[0].Dir
	assert.DirExists(t, dir)

	cleanup()
	assert.NoDirExists(t, dir)
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.zip")
	writeZip(t, archive, "../../escaped.png")

	dest := t.TempDir()
	require.Error(t, ExtractZip(archive, dest))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(filepath.Dir(dest)), "escaped.png"))
}

func TestPersonDirFor(t *testing.T) {
	root := "/inbox"
	dir, isDir := personDirFor(root, "/inbox/p1")
	assert.Equal(t, "/inbox/p1", dir)
	assert.True(t, isDir)

	dir, isDir = personDirFor(root, "/inbox/p1/p1_government_id.png")
	assert.Equal(t, "/inbox/p1", dir)
	assert.False(t, isDir)

	for _, p := range []string{"/inbox", "/inbox/.tmp/x.png", "/inbox/p1/a/b.png", "/elsewhere/p1"} {
		dir, _ = personDirFor(root, p)
		assert.Empty(t, dir, p)
	}
}

func receive(t *testing.T, ch <-chan entity.PersonDocuments) entity.PersonDocuments {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for person")
	}
	return entity.PersonDocuments{}
}

func TestWatchEmitsCompletePersons(t *testing.T) {
	root := t.TempDir()
	writePerson(t, root, "early", constants.DocumentTypes...)
	writePerson(t, root, "late", constants.GovernmentID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	persons, _, err := Watch(ctx, WatchConfig{Root: root, InitialScan: true, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, "early", receive(t, persons).PersonID)

	writePerson(t, root, "late", constants.BankStatement, constants.EmploymentLetter)
	p := receive(t, persons)
	assert.Equal(t, "late", p.PersonID)
	assert.True(t, p.Complete())

	cancel()
	for range persons {
	}
}
