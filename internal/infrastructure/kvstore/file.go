package kvstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	slotFileExt    = ".slot"
	tempFilePrefix = ".tmp-"
)

// FileStore keeps one file per slot in a directory. Writes by other processes
// are picked up through fsnotify; the store's own writes are recognised by
// content and not reported.
type FileStore struct {
	dir      string
	id       string
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	watchers *watcherSet

	mu     sync.Mutex
	known  map[string]string // file name -> last content written or observed
	closed bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// FileOption configures a FileStore
type FileOption func(*FileStore)

// WithFileLogger sets the logger
func WithFileLogger(logger *zap.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileContextID sets the context id reported as the change origin
func WithFileContextID(id string) FileOption {
	return func(s *FileStore) {
		if id != "" {
			s.id = id
		}
	}
}

// NewFileStore opens dir, creating it when missing, and starts watching it
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}

	s := &FileStore{
		dir:      dir,
		id:       NewContextID(),
		logger:   zap.NewNop(),
		watchers: newWatcherSet(),
		known:    make(map[string]string),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.scan(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch slot directory: %w", err)
	}
	s.watcher = w

	go s.run()

	s.logger.Debug("File slot store opened",
		zap.String("dir", dir),
		zap.String("context_id", s.id))
	return s, nil
}

// ContextID implements Store
func (s *FileStore) ContextID() string {
	return s.id
}

// Dir returns the watched directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Store
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements Store. The value is written to a temp file and renamed into
// place so readers never observe a partial slot.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	name := slotFileName(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp slot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}

	s.known[name] = value
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit slot %q: %w", key, err)
	}
	return nil
}

// Remove implements Store
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	name := slotFileName(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.known, name)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove slot %q: %w", key, err)
	}
	return nil
}

// Watch implements Store
func (s *FileStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.watchers.add(fn), nil
}

// Close stops the watcher goroutine and waits for it to exit
func (s *FileStore) Close() error {
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
	return s.watcher.Close()
}

func (s *FileStore) run() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Slot directory watcher error", zap.Error(err))
		}
	}
}

func (s *FileStore) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	key, ok := slotKey(name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		data, err := os.ReadFile(event.Name)
		if err == nil {
			s.observe(key, name, string(data), false)
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read changed slot",
				zap.String("key", key),
				zap.Error(err))
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, err := os.Stat(event.Name); errors.Is(err, fs.ErrNotExist) {
			s.observe(key, name, "", true)
		}
	}
}

// observe reports a change unless it matches what this store last wrote or saw
func (s *FileStore) observe(key, name, value string, removed bool) {
	s.mu.Lock()
	prev, had := s.known[name]
	switch {
	case removed && !had:
		s.mu.Unlock()
		return
	case !removed && had && prev == value:
		s.mu.Unlock()
		return
	}
	if removed {
		delete(s.known, name)
	} else {
		s.known[name] = value
	}
	s.mu.Unlock()

	s.logger.Debug("External slot change",
		zap.String("key", key),
		zap.Bool("removed", removed))
	s.watchers.notify(Change{Key: key, Value: value, Removed: removed})
}

// scan seeds the known contents so pre-existing slots are not reported
func (s *FileStore) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list slot directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := slotKey(e.Name()); !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		s.known[e.Name()] = string(data)
	}
	return nil
}

func (s *FileStore) check(ctx context.Context) error {
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

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, slotFileName(key))
}

func slotFileName(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + slotFileExt
}

func slotKey(name string) (string, bool) {
	if strings.HasPrefix(name, tempFilePrefix) || !strings.HasSuffix(name, slotFileExt) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, slotFileExt))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

var _ Store = (*FileStore)(nil)
