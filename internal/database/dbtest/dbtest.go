// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/config"
	"github.com/emilythestrangee/qna-forum/backend/internal/database"
)

// Open returns a migrated sqlite database in a temp dir, closed when
// the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := database.New(config.DBConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "qna_test.db"),
		LogLevel: "silent",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc.GetDB()
}
