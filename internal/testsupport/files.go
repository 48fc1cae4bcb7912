package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"marquee/internal/fileutil"
)

// WriteJSON writes value as indented JSON to path under the test's control.
// Relative paths resolve against a fresh temp directory.
func WriteJSON(t testing.TB, path string, value any) string {
	t.Helper()
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.TempDir(), path)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("encode %s: %v", filepath.Base(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
