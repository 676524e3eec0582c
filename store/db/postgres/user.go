package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/remindbot/store"
)

const userColumns = "id, tg_id, is_blocked, block_reason, created_ts, updated_ts"

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	fields := []string{"tg_id", "is_blocked", "block_reason"}
	args := []any{create.TelegramID, create.IsBlocked, create.BlockReason}

	stmt := `INSERT INTO users (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	return create, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.TelegramID; v != nil {
		where, args = append(where, "tg_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsBlocked; v != nil {
		where, args = append(where, "is_blocked = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	list := make([]*store.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate users")
	}

	return list, nil
}

func (d *DB) UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error) {
	set, args := []string{"updated_ts = " + placeholder(1)}, []any{time.Now().Unix()}

	if v := update.IsBlocked; v != nil {
		set, args = append(set, "is_blocked = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.BlockReason; v != nil {
		set, args = append(set, "block_reason = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + userColumns
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(store.ErrNotFound, "user %d", update.ID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*store.User, error) {
	var user store.User
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.IsBlocked,
		&user.BlockReason,
		&user.CreatedTs,
		&user.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan user")
	}
	return &user, nil
}
