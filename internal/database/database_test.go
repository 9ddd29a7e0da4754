package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/config"
	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

func TestNewSqliteHealth(t *testing.T) {
	svc, err := New(config.DBConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "health.db"),
		LogLevel: "silent",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer svc.Close()

	stats := svc.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "open_connections")
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	svc, err := New(config.DBConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "qna_test.db"),
		LogLevel: "silent",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc.GetDB()
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: "mysql"})
	require.Error(t, err)
}

func TestVoteOwnerUniqueIndex(t *testing.T) {
	db := openTestDB(t)

	first := models.Vote{Type: models.VoteTypeQuestion, TypeID: "q1", VotedByID: "u1", VoteStatus: models.VoteUpvoted}
	require.NoError(t, db.Create(&first).Error)
	assert.NotEmpty(t, first.ID)

	dup := models.Vote{Type: models.VoteTypeQuestion, TypeID: "q1", VotedByID: "u1", VoteStatus: models.VoteDownvoted}
	assert.Error(t, db.Create(&dup).Error)

	other := models.Vote{Type: models.VoteTypeAnswer, TypeID: "q1", VotedByID: "u1", VoteStatus: models.VoteDownvoted}
	assert.NoError(t, db.Create(&other).Error)
}

func TestUserPrefsDefaultReputation(t *testing.T) {
	db := openTestDB(t)

	u := models.User{Username: "ann", Email: "ann@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, 0, got.Prefs.Reputation)
}

// migrate-and-exit: New leaves a migrated schema behind and Close releases
// the handle.
func TestNewMigratesThenCloses(t *testing.T) {
	cfg := config.DBConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "migrate.db"),
		LogLevel: "silent",
	}
	svc, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.Equal(t, "down", svc.Health(context.Background())["status"])

	db, err := Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.True(t, db.Migrator().HasTable(&models.Vote{}))
	assert.True(t, db.Migrator().HasIndex(&models.Vote{}, "idx_votes_owner"))
}
