package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/hrygo/remindbot/store/cache"
)

// State is the step of a multi-message dialog a chat is in.
type State string

const (
	StateNone                    State = ""
	StateWaitingReminderText     State = "waiting_for_reminder_text"
	StateWaitingReminderToDelete State = "waiting_for_reminder_to_delete"
	StateWaitingDelayText        State = "waiting_for_delay_text"
	StateWaitingBlockUserID      State = "waiting_for_user_id"
	StateWaitingBlockReason      State = "waiting_for_reason"
)

// Session is a chat's dialog state and the data collected so far.
type Session struct {
	State        State
	ReminderID   int32 // reminder being rescheduled
	TargetUserID int64 // telegram id an admin is blocking
}

// StateStore keeps dialog state per chat in memory. Abandoned dialogs
// expire after the TTL.
type StateStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StateStore{
		cache: cache.New(cache.Config{DefaultTTL: ttl, CleanupInterval: ttl / 4}),
		ttl:   ttl,
	}
}

// Get returns the chat's session, or an empty one.
func (s *StateStore) Get(ctx context.Context, chatID int64) Session {
	if v, ok := s.cache.Get(ctx, strconv.FormatInt(chatID, 10)); ok {
		if session, ok := v.(Session); ok {
			return session
		}
	}
	return Session{}
}

func (s *StateStore) Set(ctx context.Context, chatID int64, session Session) {
	if session.State == StateNone {
		s.Clear(ctx, chatID)
		return
	}
	s.cache.SetWithTTL(ctx, strconv.FormatInt(chatID, 10), session, s.ttl)
}

func (s *StateStore) Clear(ctx context.Context, chatID int64) {
	s.cache.Delete(ctx, strconv.FormatInt(chatID, 10))
}

func (s *StateStore) Close() {
	s.cache.Close()
}
