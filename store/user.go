package store

import (
	"context"
)

// User is a chat user known to the bot.
type User struct {
	ID          int32
	TelegramID  int64
	IsBlocked   bool
	BlockReason string
	CreatedTs   int64
	UpdatedTs   int64
}

type FindUser struct {
	ID         *int32
	TelegramID *int64
	IsBlocked  *bool
}

type UpdateUser struct {
	ID          int32
	IsBlocked   *bool
	BlockReason *string
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, telegramCacheKey(user.TelegramID), user)
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, user := range list {
		s.userCache.Set(ctx, telegramCacheKey(user.TelegramID), user)
	}
	return list, nil
}

// GetUser returns the first user matching find, or nil when none does.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.TelegramID != nil && find.ID == nil && find.IsBlocked == nil {
		if cached, ok := s.userCache.Get(ctx, telegramCacheKey(*find.TelegramID)); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}

	list, err := s.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	user, err := s.driver.UpdateUser(ctx, update)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, telegramCacheKey(user.TelegramID), user)
	return user, nil
}
