package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)

	// Reminder model related methods.
	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, update *UpdateReminder) (*Reminder, error)
	DeleteReminder(ctx context.Context, delete *DeleteReminder) error
	CountReminders(ctx context.Context) (map[int32]int, error)
}
