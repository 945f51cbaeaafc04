package blobstore

import (
	"context"
	"contract-signing/internal/model"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-process Store, used by tests and the memory profile.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[model.FileRef][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[model.FileRef][]byte)}
}

func (s *MemStore) Put(ctx context.Context, ref model.FileRef, data []byte) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[ref]; ok {
		return fmt.Errorf("%w: %s", ErrExists, ref.Path())
	}
	s.blobs[ref] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Get(ctx context.Context, ref model.FileRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, ref.Path())
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Exists(ctx context.Context, ref model.FileRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[ref]
	return ok, nil
}

func (s *MemStore) Delete(ctx context.Context, ref model.FileRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, ref)
	return nil
}

func (s *MemStore) List(ctx context.Context, area model.Area) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for ref := range s.blobs {
		if ref.Area == area {
			names = append(names, ref.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
