package test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TmpFile returns a unique path in a temporary directory that is
// removed when the test finishes. It is used as sqlite database file.
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), uuid.New().String())
}

// Owner returns a unique owner ID so that tests do not see each
// other's resources.
func Owner() string {
	return "user-" + uuid.NewString()
}

// At formats a UTC time for the "at" query parameter.
func At(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
}
