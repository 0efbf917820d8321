// internal/pending/store.go
package pending

import (
	"strconv"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"diet-diary-bot/internal/models"
)

// Store holds at most one unconfirmed nutrition candidate per chat. Put
// unconditionally overwrites; Take atomically reads and removes, so a record
// can be resolved exactly once even when confirm and reject race. There is
// deliberately no Peek: resolution is always destructive.
type Store struct {
	slots cmap.ConcurrentMap[string, models.PendingRecord]
	ttl   time.Duration
}

// New creates a store. ttl bounds how long a candidate stays confirmable;
// ttl <= 0 disables expiry.
func New(ttl time.Duration) *Store {
	return &Store{
		slots: cmap.New[models.PendingRecord](),
		ttl:   ttl,
	}
}

// Put stores the candidate for chatID, silently replacing any prior one.
func (s *Store) Put(chatID int64, rec models.PendingRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.slots.Set(key(chatID), rec)
}

// Take removes and returns the pending candidate for chatID. Expired
// candidates are dropped and reported as absent.
func (s *Store) Take(chatID int64) (models.PendingRecord, bool) {
	rec, ok := s.slots.Pop(key(chatID))
	if !ok {
		return models.PendingRecord{}, false
	}
	if s.ttl > 0 && time.Since(rec.CreatedAt) > s.ttl {
		return models.PendingRecord{}, false
	}
	return rec, true
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
