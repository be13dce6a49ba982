package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/tutor-marketplace/internal/config"
)

const (
	// Channel receives every delivered notification as JSON.
	Channel = "notifications"
	// InboxSize caps the per-recipient list.
	InboxSize = 100

	keyPrefix = "notifications:"

	fieldSessionUpdates = "session_reminders"
	fieldReviews        = "review_notifications"
)

// RedisStore keeps inboxes in Redis lists. Unread notification ids live in a
// set next to each list and preferences in a hash.
type RedisStore struct {
	rdb *goredis.Client
}

// Connect opens a client from cfg and checks it with PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notify: redis connect %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(rdb), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *goredis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func inboxKey(r Recipient) string {
	return keyPrefix + string(r.Role) + ":" + r.UserID
}

func unreadKey(r Recipient) string {
	return inboxKey(r) + ":unread"
}

func settingsKey(r Recipient) string {
	return inboxKey(r) + ":settings"
}

// Deliver pushes n onto the recipient's inbox, marks it unread and publishes
// it on Channel, all in one MULTI block.
func (s *RedisStore) Deliver(ctx context.Context, n Notification) error {
	n.Read = false
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", n.ID, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, inboxKey(n.Recipient), payload)
		pipe.LTrim(ctx, inboxKey(n.Recipient), 0, InboxSize-1)
		pipe.SAdd(ctx, unreadKey(n.Recipient), n.ID)
		pipe.Publish(ctx, Channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify: deliver %s: %w", n.ID, err)
	}
	return nil
}

// List returns up to limit notifications newest first.
func (s *RedisStore) List(ctx context.Context, r Recipient, limit int) ([]Notification, error) {
	if limit <= 0 || limit > InboxSize {
		limit = InboxSize
	}
	return s.load(ctx, r, int64(limit))
}

func (s *RedisStore) load(ctx context.Context, r Recipient, limit int64) ([]Notification, error) {
	raw, err := s.rdb.LRange(ctx, inboxKey(r), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: list %s: %w", r.UserID, err)
	}
	if len(raw) == 0 {
		return []Notification{}, nil
	}

	out := make([]Notification, 0, len(raw))
	ids := make([]any, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("notify: decode inbox entry: %w", err)
		}
		out = append(out, n)
		ids = append(ids, n.ID)
	}

	unread, err := s.rdb.SMIsMember(ctx, unreadKey(r), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: read state %s: %w", r.UserID, err)
	}
	for i := range out {
		out[i].Read = !unread[i]
	}
	return out, nil
}

// UnreadCount counts unread notifications still held in the inbox. Ids
// trimmed off the list are ignored.
func (s *RedisStore) UnreadCount(ctx context.Context, r Recipient) (int64, error) {
	notes, err := s.load(ctx, r, InboxSize)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, note := range notes {
		if !note.Read {
			n++
		}
	}
	return n, nil
}

// MarkRead marks the given notifications read. Unknown ids are ignored.
func (s *RedisStore) MarkRead(ctx context.Context, r Recipient, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.rdb.SRem(ctx, unreadKey(r), members...).Err(); err != nil {
		return fmt.Errorf("notify: mark read %s: %w", r.UserID, err)
	}
	return nil
}

// MarkAllRead clears the recipient's unread set.
func (s *RedisStore) MarkAllRead(ctx context.Context, r Recipient) error {
	if err := s.rdb.Del(ctx, unreadKey(r)).Err(); err != nil {
		return fmt.Errorf("notify: mark read %s: %w", r.UserID, err)
	}
	return nil
}

// Preferences implements PreferenceSource. Fields never stored keep their
// defaults.
func (s *RedisStore) Preferences(ctx context.Context, r Recipient) (Preferences, error) {
	fields, err := s.rdb.HGetAll(ctx, settingsKey(r)).Result()
	if err != nil {
		return Preferences{}, fmt.Errorf("notify: preferences %s: %w", r.UserID, err)
	}
	prefs := DefaultPreferences()
	for field, target := range map[string]*bool{
		fieldSessionUpdates: &prefs.SessionUpdates,
		fieldReviews:        &prefs.Reviews,
	} {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Preferences{}, fmt.Errorf("notify: preference %s=%q: %w", field, raw, err)
		}
		*target = v
	}
	return prefs, nil
}

// SetPreferences stores every preference of r.
func (s *RedisStore) SetPreferences(ctx context.Context, r Recipient, p Preferences) error {
	err := s.rdb.HSet(ctx, settingsKey(r),
		fieldSessionUpdates, strconv.FormatBool(p.SessionUpdates),
		fieldReviews, strconv.FormatBool(p.Reviews),
	).Err()
	if err != nil {
		return fmt.Errorf("notify: save preferences %s: %w", r.UserID, err)
	}
	return nil
}

// Subscribe listens on Channel. Callers must close the returned subscription.
func (s *RedisStore) Subscribe(ctx context.Context) *goredis.PubSub {
	return s.rdb.Subscribe(ctx, Channel)
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
