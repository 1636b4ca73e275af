package db

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"dance-rollcall/cache"
	"dance-rollcall/sheets"
)

// SheetService translates spreadsheet rows to API models and back.
// Reads go through Cache; writes invalidate the keys they affect.
type SheetService struct {
	Store sheets.Store
	Cache cache.Cache

	Now   func() time.Time
	NewID func() string

	// serializes writes of this process so a session is never created twice
	// by two overlapping saves
	writeMu sync.Mutex

	// guards gen; every invalidation bumps gen and a read that loaded under
	// an older gen does not store its result
	cacheMu sync.Mutex
	gen     uint64
}

// NewSheetService creates a service over store. A nil cache disables caching.
func NewSheetService(store sheets.Store, c cache.Cache) *SheetService {
	if c == nil {
		c = cache.Nop{}
	}
	return &SheetService{
		Store: store,
		Cache: c,
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

// EnsureTables creates every missing sheet with its header
func (s *SheetService) EnsureTables(ctx context.Context) error {
	for _, name := range []string{
		sheets.GroupsTable,
		sheets.StudentsTable,
		sheets.InstructorsTable,
		sheets.InstructorGroupsTable,
		sheets.SessionsTable,
		sheets.AttendanceTable,
	} {
		if err := s.Store.EnsureTable(ctx, name, sheets.Headers[name]); err != nil {
			return upstream("ensure table "+name, err)
		}
	}
	return nil
}

// readTable returns the table, treating a missing sheet as an empty one
func (s *SheetService) readTable(ctx context.Context, name string) (*sheets.Table, error) {
	t, err := s.Store.ReadTable(ctx, name)
	if err != nil {
		if errors.Is(err, sheets.ErrTableNotFound) {
			return sheets.NewTable(name, sheets.Headers[name], nil), nil
		}
		log.Printf("Error reading sheet %s: %v", name, err)
		return nil, upstream("read "+name, err)
	}
	if len(t.Header) == 0 {
		return sheets.NewTable(name, sheets.Headers[name], t.Rows), nil
	}
	return t, nil
}

// cached loads key from the cache into dst or fills it with load.
// Cache failures are logged and otherwise ignored.
func cached[T any](ctx context.Context, s *SheetService, key string, load func() (T, error)) (T, error) {
	var v T
	ok, err := s.Cache.Get(ctx, key, &v)
	if err != nil {
		log.Printf("Cache read of %s failed: %v", key, err)
	}
	if ok {
		return v, nil
	}
	gen := s.generation()
	v, err = load()
	if err != nil {
		return v, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen != gen {
		// a write finished while loading, v may predate it
		return v, nil
	}
	if err := s.Cache.Set(ctx, key, v); err != nil {
		log.Printf("Cache write of %s failed: %v", key, err)
	}
	return v, nil
}

func (s *SheetService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen
}

// invalidate runs drop after a store write. Loads still in flight are kept
// out of the cache.
func (s *SheetService) invalidate(ctx context.Context, drop func(context.Context, cache.Cache) error) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++
	return drop(ctx, s.Cache)
}
