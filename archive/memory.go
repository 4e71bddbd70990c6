package archive

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory. It backs tests and
// single-process runs where no Redis is available.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]Record
	snapshots map[string]Snapshot
	subs      map[int]chan Record
	nextSub   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]Record),
		snapshots: make(map[string]Snapshot),
		subs:      make(map[int]chan Record),
	}
}

// Save archives a record and fans it out to subscribers. Subscribers that
// are not keeping up are skipped rather than blocking the save.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record
	for _, ch := range s.subs {
		select {
		case ch <- record:
		default:
		}
	}
	return nil
}

// Get returns a record by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// List returns all archived records.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	return records, nil
}

// Top returns up to n records with the highest risk scores, highest first.
func (s *MemoryStore) Top(_ context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Score.Value > records[j].Score.Value
	})
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Subscribe streams records as they are saved, until the context is
// cancelled.
func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan Record, error) {
	ch := make(chan Record, 16)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// SaveSnapshot persists a session snapshot.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.SessionID] = snapshot
	return nil
}

// GetSnapshot returns the snapshot for a session.
func (s *MemoryStore) GetSnapshot(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &snapshot, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
