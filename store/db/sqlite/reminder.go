package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/remindbot/store"
)

const reminderColumns = "id, user_id, text, remind_ts, is_sent, created_ts, updated_ts"

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	fields := []string{"user_id", "text", "remind_ts", "is_sent"}
	args := []any{create.UserID, create.Text, create.RemindTs, create.IsSent}

	stmt := `INSERT INTO reminders (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create reminder")
	}

	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsSent; v != nil {
		where, args = append(where, "is_sent = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RemindTsBefore; v != nil {
		where, args = append(where, "remind_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE ` + strings.Join(where, " AND ") + ` ORDER BY remind_ts ASC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query reminders")
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate reminders")
	}

	return list, nil
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) (*store.Reminder, error) {
	set, args := []string{"updated_ts = " + placeholder(1)}, []any{time.Now().Unix()}

	if v := update.RemindTs; v != nil {
		set, args = append(set, "remind_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.IsSent; v != nil {
		set, args = append(set, "is_sent = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE reminders SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + reminderColumns
	reminder, err := scanReminder(d.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(store.ErrNotFound, "reminder %d", update.ID)
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (d *DB) DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error {
	where, args := []string{"id = " + placeholder(1)}, []any{delete.ID}
	if v := delete.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM reminders WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete reminder")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(store.ErrNotFound, "reminder %d", delete.ID)
	}
	return nil
}

func (d *DB) CountReminders(ctx context.Context) (map[int32]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT user_id, COUNT(*) FROM reminders GROUP BY user_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count reminders")
	}
	defer rows.Close()

	counts := make(map[int32]int)
	for rows.Next() {
		var userID int32
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan reminder count")
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate reminder counts")
	}
	return counts, nil
}

func scanReminder(row scanner) (*store.Reminder, error) {
	var reminder store.Reminder
	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Text,
		&reminder.RemindTs,
		&reminder.IsSent,
		&reminder.CreatedTs,
		&reminder.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan reminder")
	}
	return &reminder, nil
}
