package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/remindbot/store"
)

// ErrUserNotFound is returned when no user has the given telegram id.
var ErrUserNotFound = errors.New("user not found")

// UserStore defines the storage the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, create *store.User) (*store.User, error)
	ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error)
	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error)
	CountReminders(ctx context.Context) (map[int32]int, error)
}

// UserSummary is a user with the number of reminders they own.
type UserSummary struct {
	User          *store.User
	ReminderCount int
}

// UserService manages chat users and their block status.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// EnsureUser returns the user with telegramID, creating it when absent.
func (s *UserService) EnsureUser(ctx context.Context, telegramID int64) (*store.User, error) {
	user, err := s.store.GetUser(ctx, &store.FindUser{TelegramID: &telegramID})
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", telegramID, err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.store.CreateUser(ctx, &store.User{TelegramID: telegramID})
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", telegramID, err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, telegramID int64) (*store.User, error) {
	user, err := s.store.GetUser(ctx, &store.FindUser{TelegramID: &telegramID})
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", telegramID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// IsBlocked reports whether the user is blocked and why. Unknown users
// are not blocked. It reads through ListUsers, which skips the user
// cache, so a block made by another instance is seen at once.
func (s *UserService) IsBlocked(ctx context.Context, telegramID int64) (bool, string, error) {
	list, err := s.store.ListUsers(ctx, &store.FindUser{TelegramID: &telegramID})
	if err != nil {
		return false, "", fmt.Errorf("get user %d: %w", telegramID, err)
	}
	if len(list) == 0 || !list[0].IsBlocked {
		return false, "", nil
	}
	return true, list[0].BlockReason, nil
}

func (s *UserService) Block(ctx context.Context, telegramID int64, reason string) (*store.User, error) {
	return s.setBlocked(ctx, telegramID, true, reason)
}

// Unblock lifts the block and clears its reason.
func (s *UserService) Unblock(ctx context.Context, telegramID int64) (*store.User, error) {
	return s.setBlocked(ctx, telegramID, false, "")
}

func (s *UserService) setBlocked(ctx context.Context, telegramID int64, blocked bool, reason string) (*store.User, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateUser(ctx, &store.UpdateUser{
		ID:          user.ID,
		IsBlocked:   &blocked,
		BlockReason: &reason,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", telegramID, err)
	}
	return updated, nil
}

// ListUsers returns every user with their reminder count.
func (s *UserService) ListUsers(ctx context.Context) ([]*UserSummary, error) {
	users, err := s.store.ListUsers(ctx, &store.FindUser{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	counts, err := s.store.CountReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}

	list := make([]*UserSummary, 0, len(users))
	for _, user := range users {
		list = append(list, &UserSummary{User: user, ReminderCount: counts[user.ID]})
	}
	return list, nil
}

// UsersByID returns every user keyed by internal id.
func (s *UserService) UsersByID(ctx context.Context) (map[int32]*store.User, error) {
	users, err := s.store.ListUsers(ctx, &store.FindUser{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	byID := make(map[int32]*store.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}
