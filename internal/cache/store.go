// Package cache memoizes backend responses in a process-wide, size-bounded
// TTL store. One Store is created at startup and cleared on logout.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 100

	// Per-type TTLs used by the API client.
	LeadsTTL         = 10 * time.Minute
	CallsTTL         = 5 * time.Minute
	StatsTTL         = 2 * time.Minute
	OrganizationsTTL = 5 * time.Minute
)

// Entry is a cached value. It is live while now - Timestamp <= TTL.
type Entry struct {
	Data      any
	Timestamp time.Time
	TTL       time.Duration
}

// Valid reports whether the entry is still live at now.
func (e Entry) Valid(now time.Time) bool {
	return now.Sub(e.Timestamp) <= e.TTL
}

// Stats counts store activity since creation or the last Clear.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

type item struct {
	key   string
	entry Entry
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	MaxSize    int
	DefaultTTL time.Duration
}

// Store is a string-keyed TTL cache. Expired entries are dropped lazily when
// their key is read; capacity is enforced on write by evicting the oldest
// inserted key, regardless of its TTL.
type Store struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration
	order      *list.List
	items      map[string]*list.Element
	stats      Stats
	now        func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	return &Store{
		maxSize:    opts.MaxSize,
		defaultTTL: opts.DefaultTTL,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get returns the live entry for key. An expired entry is removed and
// reported as a miss.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		s.stats.Misses++
		return Entry{}, false
	}
	it := el.Value.(*item)
	if !it.entry.Valid(s.now()) {
		s.order.Remove(el)
		delete(s.items, key)
		s.stats.Misses++
		return Entry{}, false
	}
	s.stats.Hits++
	return it.entry, true
}

// Set stores data under key stamped with the current time. A non-positive
// ttl selects the store default. Rewriting a key moves it to the newest
// insertion position.
func (s *Store) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.order.Remove(el)
		delete(s.items, key)
	}
	s.items[key] = s.order.PushBack(&item{
		key:   key,
		entry: Entry{Data: data, Timestamp: s.now(), TTL: ttl},
	})

	for len(s.items) > s.maxSize {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*item).key)
		s.stats.Evictions++
	}
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.order.Remove(el)
		delete(s.items, key)
	}
}

// Clear drops every entry and resets the counters.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.items = make(map[string]*list.Element)
	s.stats = Stats{}
}

// Len returns the number of stored entries, including expired ones not yet read.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Size = len(s.items)
	return st
}
