package booking

import (
	"context"
	"sync"
	"time"
)

// DraftStore keeps each user's single in-progress draft. Start always resets:
// selecting a service discards whatever was accumulated before. Update fails
// with ErrNoDraft when no draft exists; callers must Start first.
type DraftStore interface {
	Start(ctx context.Context, userID, serviceID string) (Draft, error)
	Update(ctx context.Context, userID string, patch DraftPatch) (Draft, error)
	Get(ctx context.Context, userID string) (Draft, error)
	Clear(ctx context.Context, userID string) error
}

type draftEntry struct {
	draft     Draft
	expiresAt time.Time
}

// MemoryDraftStore is the in-process DraftStore. Drafts expire after the
// configured TTL so abandoned wizards do not accumulate.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]draftEntry
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryDraftStore creates an in-memory draft store.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryDraftStore{
		drafts: make(map[string]draftEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

var _ DraftStore = (*MemoryDraftStore)(nil)

func (s *MemoryDraftStore) Start(ctx context.Context, userID, serviceID string) (Draft, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Draft{ServiceID: serviceID}
	s.drafts[userID] = draftEntry{draft: d, expiresAt: s.now().Add(s.ttl)}
	return d, nil
}

func (s *MemoryDraftStore) Update(ctx context.Context, userID string, patch DraftPatch) (Draft, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drafts[userID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.drafts, userID)
		return Draft{}, ErrNoDraft
	}

	entry.draft = entry.draft.apply(patch)
	entry.expiresAt = s.now().Add(s.ttl)
	s.drafts[userID] = entry
	return entry.draft, nil
}

func (s *MemoryDraftStore) Get(ctx context.Context, userID string) (Draft, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drafts[userID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.drafts, userID)
		return Draft{}, ErrNoDraft
	}
	return entry.draft, nil
}

func (s *MemoryDraftStore) Clear(ctx context.Context, userID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, userID)
	return nil
}
