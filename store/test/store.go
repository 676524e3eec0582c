// Package test holds store tests that run against every database driver.
// Set DRIVER=postgres to run them against a PostgreSQL container.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/store"
	"github.com/hrygo/remindbot/store/db"
)

func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:    "dev",
		Data:    dir,
		Driver:  getDriverFromEnv(),
		BotMode: profile.BotModePolling,
	}
	switch p.Driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.Driver = "sqlite"
		p.DSN = filepath.Join(dir, "remindbot_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

func createTestingUser(ctx context.Context, ts *store.Store, telegramID int64) (*store.User, error) {
	return ts.CreateUser(ctx, &store.User{TelegramID: telegramID})
}
