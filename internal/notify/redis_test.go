package notify

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/config"
)

func openRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("TUTOR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TUTOR_TEST_REDIS_ADDR not set")
	}
	store, err := Connect(context.Background(), config.RedisConfig{Addr: addr, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStoreInbox(t *testing.T) {
	store := openRedis(t)
	ctx := context.Background()

	to := Recipient{UserID: fmt.Sprintf("mentor-%d", time.Now().UnixNano()), Role: application.RoleMentor}
	t.Cleanup(func() { _ = store.rdb.Del(context.Background(), inboxKey(to), unreadKey(to), settingsKey(to)).Err() })

	sub := store.Subscribe(ctx)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Deliver(ctx, Notification{
			ID:        fmt.Sprintf("n-%d", i),
			Recipient: to,
			Kind:      KindSessionRequested,
			Title:     "New session request",
			CreatedAt: time.Date(2024, 3, 18, 9, i, 0, 0, time.UTC),
		}))
	}

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Channel, msg.Channel)
	assert.Contains(t, msg.Payload, `"id":"n-1"`)

	require.NoError(t, store.MarkAllRead(ctx, to))
	require.NoError(t, store.Deliver(ctx, Notification{ID: "n-4", Recipient: to, Kind: KindSessionStatus}))

	unread, err := store.UnreadCount(ctx, to)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	inbox, err := store.List(ctx, to, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 4)
	assert.Equal(t, "n-4", inbox[0].ID)
	assert.False(t, inbox[0].Read)
	assert.Equal(t, "n-3", inbox[1].ID)
	assert.True(t, inbox[1].Read)

	limited, err := store.List(ctx, to, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRedisStoreCapsInbox(t *testing.T) {
	store := openRedis(t)
	ctx := context.Background()

	to := Recipient{UserID: fmt.Sprintf("student-%d", time.Now().UnixNano()), Role: application.RoleStudent}
	t.Cleanup(func() { _ = store.rdb.Del(context.Background(), inboxKey(to), unreadKey(to), settingsKey(to)).Err() })

	for i := 0; i < InboxSize+5; i++ {
		require.NoError(t, store.Deliver(ctx, Notification{ID: fmt.Sprintf("n-%d", i), Recipient: to}))
	}

	length, err := store.rdb.LLen(ctx, inboxKey(to)).Result()
	require.NoError(t, err)
	assert.EqualValues(t, InboxSize, length)

	unread, err := store.UnreadCount(ctx, to)
	require.NoError(t, err)
	assert.EqualValues(t, InboxSize, unread)

	inbox, err := store.List(ctx, to, InboxSize)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("n-%d", InboxSize+4), inbox[0].ID)
}

func TestRedisStoreMarkRead(t *testing.T) {
	store := openRedis(t)
	ctx := context.Background()

	to := Recipient{UserID: fmt.Sprintf("student-%d", time.Now().UnixNano()), Role: application.RoleStudent}
	t.Cleanup(func() { _ = store.rdb.Del(context.Background(), inboxKey(to), unreadKey(to), settingsKey(to)).Err() })

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Deliver(ctx, Notification{ID: id, Recipient: to, Kind: KindSessionStatus}))
	}
	require.NoError(t, store.MarkRead(ctx, to, "b", "missing"))

	inbox, err := store.List(ctx, to, 0)
	require.NoError(t, err)
	read := map[string]bool{}
	for _, n := range inbox {
		read[n.ID] = n.Read
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, read)

	unread, err := store.UnreadCount(ctx, to)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
	require.NoError(t, store.MarkRead(ctx, to))
}

func TestRedisStorePreferences(t *testing.T) {
	store := openRedis(t)
	ctx := context.Background()

	to := Recipient{UserID: fmt.Sprintf("mentor-%d", time.Now().UnixNano()), Role: application.RoleMentor}
	t.Cleanup(func() { _ = store.rdb.Del(context.Background(), inboxKey(to), unreadKey(to), settingsKey(to)).Err() })

	prefs, err := store.Preferences(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)

	require.NoError(t, store.SetPreferences(ctx, to, Preferences{SessionUpdates: true, Reviews: false}))
	prefs, err = store.Preferences(ctx, to)
	require.NoError(t, err)
	assert.False(t, prefs.Reviews)

	notifier := NewNotifier(store, nil, nil)
	delivered := notifier.Send(ctx,
		Notification{ID: "r-1", Recipient: to, Kind: KindReviewReceived},
		Notification{ID: "s-1", Recipient: to, Kind: KindSessionRequested},
	)
	assert.Equal(t, 1, delivered)
	inbox, err := store.List(ctx, to, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "s-1", inbox[0].ID)
}

func TestConnectFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
