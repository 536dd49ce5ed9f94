package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

// MemoryStore keeps everything in process memory. Used for tests and for
// single-instance deployments that can lose state on restart.
type MemoryStore struct {
	mu              sync.RWMutex
	settings        map[string]string
	fulfillments    map[string][]byte
	shippingMethods map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings:        make(map[string]string),
		fulfillments:    make(map[string][]byte),
		shippingMethods: make(map[string][]byte),
	}
}

func (s *MemoryStore) GetSetting(ctx context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[name]
	return v, ok, nil
}

func (s *MemoryStore) SetSetting(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[name] = value
	return nil
}

func (s *MemoryStore) ListSettings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

// Records are stored encoded so callers never share maps with the store.
func (s *MemoryStore) SaveFulfillment(ctx context.Context, record *fulfillment.Record) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fulfillments[record.ID] = b
	return nil
}

func (s *MemoryStore) GetFulfillment(ctx context.Context, id string) (*fulfillment.Record, error) {
	s.mu.RLock()
	b, ok := s.fulfillments[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var record fulfillment.Record
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MemoryStore) SaveShippingMethodData(ctx context.Context, orderID, methodID string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shippingMethods[shippingMethodKey(orderID, methodID)] = b
	return nil
}

func (s *MemoryStore) GetShippingMethodData(ctx context.Context, orderID, methodID string) (map[string]any, error) {
	s.mu.RLock()
	b, ok := s.shippingMethods[shippingMethodKey(orderID, methodID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func shippingMethodKey(orderID, methodID string) string {
	return orderID + "/" + methodID
}

var _ Store = (*MemoryStore)(nil)
