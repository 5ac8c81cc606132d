package contentstore

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable signals a transient store failure; callers may retry
	// with backoff.
	ErrUnavailable = errors.New("content store unavailable")
	// ErrNotFound means the blob does not exist. It is not retryable and
	// indicates data loss if the CID was previously stored.
	ErrNotFound = errors.New("content not found")
)

// CID is an opaque content identifier. Identical blobs yield identical CIDs.
type CID = string

// Store is the adapter over an external content-addressed blob store. The
// coordinator only ever holds CIDs; blob bytes never enter its ledgers.
type Store interface {
	Put(ctx context.Context, data []byte) (CID, error)
	Get(ctx context.Context, id CID) ([]byte, error)
	Has(ctx context.Context, id CID) (bool, error)
}
