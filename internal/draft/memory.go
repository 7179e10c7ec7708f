package draft

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps drafts in process memory. Drafts idle for longer than
// the TTL are dropped by Sweep and treated as missing by Get.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates an empty store. A zero ttl keeps drafts forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		drafts: make(map[uuid.UUID]Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create starts an empty draft owned by owner.
func (s *MemoryStore) Create(owner string, seed func(*Draft)) Draft {
	d := Draft{ID: uuid.New(), Owner: owner, UpdatedAt: s.now()}
	if seed != nil {
		seed(&d)
	}
	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d.clone()
}

// Get returns a copy of the draft.
func (s *MemoryStore) Get(id uuid.UUID) (Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok || s.expired(d) {
		return Draft{}, ErrNotFound
	}
	return d.clone(), nil
}

// Update applies fn to the stored draft. The change is discarded if fn
// returns an error.
func (s *MemoryStore) Update(id uuid.UUID, fn func(*Draft) error) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || s.expired(d) {
		return Draft{}, ErrNotFound
	}
	working := d.clone()
	if err := fn(&working); err != nil {
		return d.clone(), err
	}
	working.UpdatedAt = s.now()
	s.drafts[id] = working
	return working.clone(), nil
}

// Delete removes the draft.
func (s *MemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

// Sweep drops expired drafts and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.drafts {
		if s.expired(d) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored drafts, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

func (s *MemoryStore) expired(d Draft) bool {
	return s.ttl > 0 && s.now().Sub(d.UpdatedAt) > s.ttl
}

// Run sweeps expired drafts every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("swept %d expired drafts, %d open", n, s.Len())
			}
		}
	}
}
