package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPollInterval is how often a SQLStore looks for other contexts' writes
const DefaultPollInterval = time.Second

// KVSlot is one slot row. Removed rows are kept as tombstones so that pollers
// in other contexts see the removal as a revision bump.
type KVSlot struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	Origin    string    `gorm:"size:64;not null"`
	Revision  int64     `gorm:"not null"`
	Removed   bool      `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KVSlot) TableName() string {
	return "kv_slots"
}

// SQLStore keeps slots in a gorm-managed table and polls row revisions to
// detect writes made by other contexts.
type SQLStore struct {
	db       *gorm.DB
	owned    *Database
	id       string
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
	watchers *watcherSet

	seenMu sync.Mutex
	seen   map[string]int64

	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// SQLOption configures a SQLStore
type SQLOption func(*SQLStore)

// WithSQLLogger sets the logger
func WithSQLLogger(logger *zap.Logger) SQLOption {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSQLContextID sets the origin written with every row
func WithSQLContextID(id string) SQLOption {
	return func(s *SQLStore) {
		if id != "" {
			s.id = id
		}
	}
}

// WithPollInterval sets the revision polling period; zero disables polling
func WithPollInterval(d time.Duration) SQLOption {
	return func(s *SQLStore) {
		s.interval = d
	}
}

// withOwnedDatabase makes Close release db
func withOwnedDatabase(db *Database) SQLOption {
	return func(s *SQLStore) {
		s.owned = db
	}
}

// NewSQLStore migrates the slot table and starts polling for changes
func NewSQLStore(ctx context.Context, db *gorm.DB, opts ...SQLOption) (*SQLStore, error) {
	s := newSQLStore(db, opts...)

	if err := db.WithContext(ctx).AutoMigrate(&KVSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate slot table: %w", err)
	}

	// Rows present at startup are the baseline, not changes.
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		s.seen[r.Key] = r.Revision
	}

	if s.interval > 0 {
		go s.run()
	} else {
		close(s.doneCh)
	}
	return s, nil
}

func newSQLStore(db *gorm.DB, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		db:       db,
		id:       NewContextID(),
		logger:   zap.NewNop(),
		interval: DefaultPollInterval,
		now:      time.Now,
		watchers: newWatcherSet(),
		seen:     make(map[string]int64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContextID implements Store
func (s *SQLStore) ContextID() string {
	return s.id
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	var row KVSlot
	err := s.db.WithContext(ctx).
		Where("key = ? AND removed = ?", key, false).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return row.Value, true, nil
}

// Set implements Store with an upsert that bumps the row revision
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	now := s.now()
	row := KVSlot{Key: key, Value: value, Origin: s.id, Revision: 1, UpdatedAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      value,
			"origin":     s.id,
			"removed":    false,
			"updated_at": now,
			"revision":   gorm.Expr("kv_slots.revision + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

// Remove implements Store by tombstoning the row
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&KVSlot{}).
		Where("key = ? AND removed = ?", key, false).
		Updates(map[string]any{
			"value":      "",
			"origin":     s.id,
			"removed":    true,
			"updated_at": s.now(),
			"revision":   gorm.Expr("revision + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to remove slot %q: %w", key, err)
	}
	return nil
}

// Watch implements Store
func (s *SQLStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.watchers.add(fn), nil
}

// Close stops polling and releases the database when the store opened it
func (s *SQLStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.watchers.clear()

	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}

func (s *SQLStore) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval*5)
			if err := s.poll(ctx); err != nil {
				s.logger.Warn("Slot polling failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// poll reports every row whose revision moved since the last poll and whose
// latest write came from another context.
func (s *SQLStore) poll(ctx context.Context) error {
	rows, err := s.load(ctx)
	if err != nil {
		return err
	}

	var changes []Change
	s.seenMu.Lock()
	for _, r := range rows {
		if s.seen[r.Key] == r.Revision {
			continue
		}
		s.seen[r.Key] = r.Revision
		if r.Origin == s.id {
			continue
		}
		changes = append(changes, Change{
			Key:     r.Key,
			Value:   r.Value,
			Removed: r.Removed,
			Origin:  r.Origin,
		})
	}
	s.seenMu.Unlock()

	for _, c := range changes {
		s.logger.Debug("External slot change",
			zap.String("key", c.Key),
			zap.String("origin", c.Origin),
			zap.Bool("removed", c.Removed))
		s.watchers.notify(c)
	}
	return nil
}

func (s *SQLStore) load(ctx context.Context) ([]KVSlot, error) {
	var rows []KVSlot
	if err := s.db.WithContext(ctx).Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load slot revisions: %w", err)
	}
	return rows, nil
}

func (s *SQLStore) check(ctx context.Context) error {
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

var _ Store = (*SQLStore)(nil)
