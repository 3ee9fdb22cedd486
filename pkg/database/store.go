package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sync"

	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Collection names used by the portal
const (
	Users       = "users"
	Deposits    = "deposits"
	Withdrawals = "withdrawals"
	Admins      = "admins"
	Banners     = "banners"
	Config      = "config"
	ChatMain    = "chat-main"
	ChatSupport = "chat-support"
)

// ErrNoDocument is returned by a Backend when a collection was never written
var ErrNoDocument = errors.New("database: collection does not exist")

var collectionName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Backend persists whole collections as opaque JSON documents
type Backend interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Store reads and writes named collections on top of a Backend.
//
// Every collection has its own mutex held across load, mutate and save, so
// writers to the same collection never interleave inside one process. Code
// that mutates two collections must lock the request collection first and
// the users collection second.
type Store struct {
	backend   Backend
	onCorrupt func(collection string, err error)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithCorruptionHook registers a callback invoked whenever a collection
// fails to decode and is treated as empty.
func WithCorruptionHook(fn func(collection string, err error)) Option {
	return func(s *Store) { s.onCorrupt = fn }
}

// NewStore wraps a backend
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

// Read decodes a collection into v. A missing or undecodable collection
// leaves v untouched and returns nil; only backend failures are reported.
func (s *Store) Read(ctx context.Context, collection string, v interface{}) error {
	if !collectionName.MatchString(collection) {
		return apperrors.Validation(fmt.Sprintf("invalid collection name %q", collection))
	}

	data, err := s.backend.Load(ctx, collection)
	if errors.Is(err, ErrNoDocument) || (err == nil && len(data) == 0) {
		return nil
	}
	if err != nil {
		return apperrors.Internal("failed to load "+collection, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// a type mismatch can leave v half decoded
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && !rv.IsNil() {
			rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
		}
		s.corrupt(collection, err)
	}
	return nil
}

func (s *Store) corrupt(collection string, err error) {
	logger.WithFields(logrus.Fields{
		"collection": collection,
		"error":      apperrors.StorageCorrupt(collection, err).Error(),
	}).Warn("Collection is corrupt, treating as empty")
	if s.onCorrupt != nil {
		s.onCorrupt(collection, err)
	}
}

// unavailable turns a backend failure on a plain read into an empty result.
// Update does not go through here: saving after a failed load would wipe the
// collection.
func (s *Store) unavailable(collection string, err error) error {
	if err == nil || apperrors.Is(err, apperrors.CodeValidation) {
		return err
	}
	logger.WithFields(logrus.Fields{
		"collection": collection,
		"error":      err.Error(),
	}).Warn("Collection unavailable, treating as empty")
	return nil
}

// Write overwrites a collection with v
func (s *Store) Write(ctx context.Context, collection string, v interface{}) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()
	return s.save(ctx, collection, v)
}

func (s *Store) save(ctx context.Context, collection string, v interface{}) error {
	if !collectionName.MatchString(collection) {
		return apperrors.Validation(fmt.Sprintf("invalid collection name %q", collection))
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Internal("failed to encode "+collection, err)
	}
	if err := s.backend.Save(ctx, collection, data); err != nil {
		return apperrors.Internal("failed to save "+collection, err)
	}
	return nil
}

// Update runs load, fn and save for one collection while holding its lock.
// v is decoded before fn runs; returning an error from fn aborts the save.
func (s *Store) Update(ctx context.Context, collection string, v interface{}, fn func() error) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	if err := s.Read(ctx, collection, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.save(ctx, collection, v)
}

// Health pings the backend
func (s *Store) Health(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// ReadList returns the collection as a slice, never nil
func ReadList[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	var items []T
	if err := s.unavailable(collection, s.Read(ctx, collection, &items)); err != nil {
		return []T{}, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// WriteList overwrites the collection with items
func WriteList[T any](ctx context.Context, s *Store, collection string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return s.Write(ctx, collection, items)
}

// UpdateList replaces the collection with the slice fn returns
func UpdateList[T any](ctx context.Context, s *Store, collection string, fn func([]T) ([]T, error)) ([]T, error) {
	var items []T
	err := s.Update(ctx, collection, &items, func() error {
		if items == nil {
			items = []T{}
		}
		next, err := fn(items)
		if err != nil {
			return err
		}
		if next == nil {
			next = []T{}
		}
		items = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReadObject returns a JSON object collection, never nil
func ReadObject(ctx context.Context, s *Store, collection string) (map[string]interface{}, error) {
	obj := map[string]interface{}{}
	if err := s.unavailable(collection, s.Read(ctx, collection, &obj)); err != nil {
		return map[string]interface{}{}, err
	}
	if obj == nil {
		obj = map[string]interface{}{}
	}
	return obj, nil
}

// MergeObject shallow-merges patch into a JSON object collection
func MergeObject(ctx context.Context, s *Store, collection string, patch map[string]interface{}) (map[string]interface{}, error) {
	obj := map[string]interface{}{}
	err := s.Update(ctx, collection, &obj, func() error {
		if obj == nil {
			obj = map[string]interface{}{}
		}
		for k, v := range patch {
			obj[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
