package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/store"
	"github.com/hrygo/remindbot/store/db/postgres"
	"github.com/hrygo/remindbot/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// SQLite is the default for single-instance deployments; PostgreSQL is
// used when several bot processes share one database.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
