package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zoramarket/cart-service/internal/domain"
)

// SnapshotStore keeps encoded snapshots in process memory. Values are stored
// as JSON so callers never share state with the store.
type SnapshotStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	saves  int
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{values: make(map[string][]byte)}
}

func (s *SnapshotStore) Load(_ context.Context, key string) (domain.Snapshot, bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return domain.Snapshot{}, false, nil
	}
	var out domain.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return out, true, nil
}

func (s *SnapshotStore) Save(_ context.Context, key string, snapshot domain.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}
	s.mu.Lock()
	s.values[key] = raw
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves reports how many writes the store has accepted.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
