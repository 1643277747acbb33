package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/fmigen/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPackage creates a package record with minimal required fields.
func createTestPackage(model, platform, sha string, created time.Time) Package {
	return Package{
		ModelName:         model,
		GUID:              testutil.DefaultGUID,
		Platform:          platform,
		ArchivePath:       "target/fmu/" + model + ".fmu",
		SHA256:            sha,
		DescriptionSHA256: "d-" + sha,
		GeneratorVersion:  "0.1.0",
		CreatedAt:         created,
	}
}
