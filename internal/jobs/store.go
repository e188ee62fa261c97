package jobs

import "sync"

// Store is the job registry. Get returns snapshots; writes happen only
// through Put and Claim.
type Store interface {
	// Get returns a snapshot of the record for id.
	Get(id string) (Record, bool)

	// Put unconditionally stores rec under its job id.
	Put(rec Record)

	// Claim attempts to install rec as a fresh run for its job id. When a
	// record already exists in a non-error state the existing snapshot is
	// returned with claimed=false and nothing is written. Check and install
	// are a single atomic step.
	Claim(rec Record) (current Record, claimed bool)
}

// MemoryStore is the in-process Store. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.JobID] = rec
}

func (s *MemoryStore) Claim(rec Record) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.JobID]; ok && existing.Status != StatusError {
		return existing, false
	}
	s.records[rec.JobID] = rec
	return rec, true
}

var _ Store = (*MemoryStore)(nil)
