package draft

import "sync"

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

// Put implements Store.
func (s *MemoryStore) Put(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Entity.Key()] = snapshot
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(e EntityRef) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[e.Key()]
	return snapshot, ok, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(e EntityRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, e.Key())
	return nil
}

// List implements Store.
func (s *MemoryStore) List() ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(s.snapshots))
	for _, snapshot := range s.snapshots {
		out = append(out, snapshot)
	}
	return out, nil
}
