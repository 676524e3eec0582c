package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/remindbot/store"
	teststore "github.com/hrygo/remindbot/store/test"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *store.Store
	clock     *clockwork.FakeClock
	queue     *MemoryQueue
	reminders *Service
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ts := teststore.NewTestingStore(context.Background(), t)
	clock := clockwork.NewFakeClockAt(testNow)
	queue := NewMemoryQueue()
	return &testEnv{
		store:     ts,
		clock:     clock,
		queue:     queue,
		reminders: NewService(ts, queue, clock),
		users:     NewUserService(ts),
	}
}

func (e *testEnv) newUser(t *testing.T, telegramID int64) *store.User {
	t.Helper()
	user, err := e.users.EnsureUser(context.Background(), telegramID)
	require.NoError(t, err)
	return user
}

func (e *testEnv) newReminder(t *testing.T, user *store.User, text string, at time.Time) *store.Reminder {
	t.Helper()
	reminder, err := e.reminders.Create(context.Background(), user.ID, text, at)
	require.NoError(t, err)
	return reminder
}

type sentMessage struct {
	ChatID     int64
	ReminderID int32
	Text       string
}

// mockNotifier records sends and fails the first failures calls with err.
type mockNotifier struct {
	mu       sync.Mutex
	sent     []sentMessage
	err      error
	failures int
	calls    int
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (n *mockNotifier) SendReminder(_ context.Context, chatID int64, reminderID int32, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil && (n.failures < 0 || n.calls <= n.failures) {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{ChatID: chatID, ReminderID: reminderID, Text: text})
	return nil
}

func (n *mockNotifier) failWith(err error, times int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err, n.failures = err, times
}

func (n *mockNotifier) Sent() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

var errSendFailed = errors.New("send failed")
