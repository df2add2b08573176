package uploads

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"verivault/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type part struct {
	name string
	data []byte
}

// fileHeaders builds real multipart headers the way gin would hand them over.
func fileHeaders(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := w.CreateFormFile("attachments", p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["attachments"]
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Dir: t.TempDir(), MaxFileBytes: 1024, MaxFiles: 3, Allowed: DefaultAllowed}
}

func dirCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestSaveAll_WritesWhitelistedFiles(t *testing.T) {
	s := newStore(t)
	atts, err := s.SaveAll(fileHeaders(t,
		part{"photo.PNG", pngHeader},
		part{"notes.txt", []byte("gate 3 left open at 02:10\n")},
	))
	require.NoError(t, err)
	require.Len(t, atts, 2)

	assert.Equal(t, "photo.PNG", atts[0].OriginalName)
	assert.True(t, strings.HasSuffix(atts[0].Filename, ".png"))
	assert.Equal(t, "image/png", atts[0].Mimetype)
	assert.FileExists(t, atts[0].UploadPath)
	assert.True(t, strings.HasPrefix(atts[1].Mimetype, "text/plain"))
	assert.Equal(t, 2, dirCount(t, s.Dir))

	require.NoError(t, s.Remove(atts))
	assert.Equal(t, 0, dirCount(t, s.Dir))
	require.NoError(t, s.Remove(atts), "second remove is a no-op")
}

func TestSaveAll_RejectsBeforeWriting(t *testing.T) {
	cases := []struct {
		name  string
		parts []part
		want  error
	}{
		{"oversized", []part{{"ok.png", pngHeader}, {"big.txt", bytes.Repeat([]byte("a"), 2048)}}, ErrFileTooLarge},
		{"executable", []part{{"ok.png", pngHeader}, {"tool.exe", append([]byte("MZ\x90\x00"), make([]byte, 64)...)}}, ErrUnsupportedType},
		{"too many", []part{{"a.txt", []byte("a")}, {"b.txt", []byte("b")}, {"c.txt", []byte("c")}, {"d.txt", []byte("d")}}, ErrTooManyFiles},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			_, err := s.SaveAll(fileHeaders(t, tc.parts...))
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, dirCount(t, s.Dir), "nothing may be written")
		})
	}
}

func TestSweep_KeepsReferencedAndFreshFiles(t *testing.T) {
	s := newStore(t)
	old := time.Now().Add(-48 * time.Hour)
	for _, name := range []string{"kept.png", "orphan.png", "fresh.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir, name), pngHeader, 0o644))
	}
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir, "kept.png"), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir, "orphan.png"), old, old))

	n, err := s.Sweep(map[string]struct{}{"kept.png": {}}, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(s.Dir, "orphan.png"))
	assert.FileExists(t, filepath.Join(s.Dir, "kept.png"))
	assert.FileExists(t, filepath.Join(s.Dir, "fresh.png"))
}

func TestRemove_IgnoresPathTraversal(t *testing.T) {
	s := newStore(t)
	outside := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	require.NoError(t, s.Remove([]models.Attachment{{Filename: "../" + filepath.Base(outside)}}))
	assert.FileExists(t, outside)
}
