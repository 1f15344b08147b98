package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRedisChannel carries slot change messages between contexts
	DefaultRedisChannel = "shipshape:slots"

	defaultCloseTimeout = 5 * time.Second
)

// slotMessage is published on the change channel after every write
type slotMessage struct {
	Key     string `json:"key"`
	Origin  string `json:"origin"`
	Value   string `json:"value,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// RedisStore keeps slots as Redis strings and announces every write on a
// Pub/Sub channel so other contexts can follow along.
type RedisStore struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	channel    string
	id         string
	logger     *zap.Logger
	watchers   *watcherSet

	pubsub   *redis.PubSub
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithRedisChannel sets the Pub/Sub channel name
func WithRedisChannel(channel string) RedisOption {
	return func(s *RedisStore) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger *zap.Logger) RedisOption {
	return func(s *RedisStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRedisContextID sets the origin attached to published changes
func WithRedisContextID(id string) RedisOption {
	return func(s *RedisStore) {
		if id != "" {
			s.id = id
		}
	}
}

// NewRedisStore connects to addr and subscribes to the change channel
func NewRedisStore(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s, err := NewRedisStoreWithClient(ctx, client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.ownsClient = true
	return s, nil
}

// NewRedisStoreWithClient uses an existing client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisStoreWithClient(ctx context.Context, client *redis.Client, opts ...RedisOption) (*RedisStore, error) {
	s := &RedisStore{
		client:   client,
		channel:  DefaultRedisChannel,
		id:       NewContextID(),
		logger:   zap.NewNop(),
		watchers: newWatcherSet(),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := client.Subscribe(subCtx, s.channel)

	// Wait for subscription confirmation so writes made right after
	// construction are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	s.pubsub = pubsub
	s.cancelFn = cancel

	s.logger.Info("Subscribed to slot change channel",
		zap.String("channel", s.channel),
		zap.String("context_id", s.id))

	go s.listen(subCtx, pubsub.Channel())
	return s, nil
}

// ContextID implements Store
func (s *RedisStore) ContextID() string {
	return s.id
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.write(ctx, slotMessage{Key: key, Origin: s.id, Value: value}, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, value, 0)
	})
}

// Remove implements Store
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.write(ctx, slotMessage{Key: key, Origin: s.id, Removed: true}, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
	})
}

// write applies op and publishes msg in one MULTI/EXEC
func (s *RedisStore) write(ctx context.Context, msg slotMessage, op func(redis.Pipeliner)) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slot message: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		op(pipe)
		pipe.Publish(ctx, s.channel, data)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to write slot",
			zap.String("key", msg.Key),
			zap.String("channel", s.channel),
			zap.Error(err))
		return fmt.Errorf("failed to write slot %q: %w", msg.Key, err)
	}
	return nil
}

// Watch implements Store
func (s *RedisStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.watchers.add(fn), nil
}

func (s *RedisStore) listen(ctx context.Context, ch <-chan *redis.Message) {
	defer s.markDone()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Slot change subscription stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("Slot change channel closed")
				return
			}

			var m slotMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				s.logger.Error("Failed to unmarshal slot message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			if m.Origin == s.id {
				continue
			}
			s.deliver(Change{Key: m.Key, Value: m.Value, Removed: m.Removed, Origin: m.Origin})
		}
	}
}

// deliver runs watchers in order on the listener goroutine; a panicking
// watcher is logged and does not stop the subscription
func (s *RedisStore) deliver(c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic in slot change callback",
				zap.String("key", c.Key),
				zap.Any("panic", r))
		}
	}()
	s.watchers.notify(c)
}

// markDone safely marks the listener as done
func (s *RedisStore) markDone() {
	s.doneOnce.Do(func() {
		close(s.doneCh)
	})
}

// Close stops the subscription and closes the client when the store owns it
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelFn()
	_ = s.pubsub.Close()

	select {
	case <-s.doneCh:
	case <-time.After(defaultCloseTimeout):
		s.logger.Warn("Timeout waiting for subscription to stop")
	}
	s.watchers.clear()

	// Only close client if we own it
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

func (s *RedisStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
