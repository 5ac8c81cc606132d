package contentstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

type memoryStore struct {
	mu    sync.RWMutex
	blobs map[CID][]byte
}

// NewMemoryStore returns an in-process Store addressing blobs by CIDv1 with a
// sha2-256 multihash. Used for tests and single-node deployments.
func NewMemoryStore() Store {
	return &memoryStore{
		blobs: make(map[CID][]byte),
	}
}

func (s *memoryStore) Put(_ context.Context, data []byte) (CID, error) {
	id, err := Sum(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.blobs[id] = buf
	}

	return id, nil
}

func (s *memoryStore) Get(_ context.Context, id CID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (s *memoryStore) Has(_ context.Context, id CID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[id]

	return ok, nil
}

// Sum computes the deterministic CID for a blob without storing it.
func Sum(data []byte) (CID, error) {
	h, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to hash blob: %w", err)
	}

	return cid.NewCidV1(cid.Raw, h).String(), nil
}
