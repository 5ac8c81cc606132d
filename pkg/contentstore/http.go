package contentstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defRequestTimeout = 10 * time.Second
	defMaxElapsed     = 30 * time.Second
)

type httpStore struct {
	baseURL    string
	client     *http.Client
	maxElapsed time.Duration
}

// NewHTTPStore returns a Store backed by a blob gateway exposing
// PUT /blobs and GET /blobs/{cid}. Transient failures (transport errors,
// 5xx) are retried with bounded exponential backoff and surface as
// ErrUnavailable once the budget is exhausted.
func NewHTTPStore(baseURL string, requestTimeout time.Duration) Store {
	if requestTimeout == 0 {
		requestTimeout = defRequestTimeout
	}

	return &httpStore{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: requestTimeout},
		maxElapsed: defMaxElapsed,
	}
}

func (s *httpStore) Put(ctx context.Context, data []byte) (CID, error) {
	op := func() (CID, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/blobs", bytes.NewReader(data))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := s.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return "", fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return "", backoff.Permanent(fmt.Errorf("gateway rejected blob: %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return CID(bytes.TrimSpace(body)), nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.maxElapsed),
	)
}

func (s *httpStore) Get(ctx context.Context, id CID) ([]byte, error) {
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.blobURL(id), nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("unexpected gateway status: %d", resp.StatusCode))
		}

		return io.ReadAll(resp.Body)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.maxElapsed),
	)
}

func (s *httpStore) Has(ctx context.Context, id CID) (bool, error) {
	op := func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.blobURL(id), nil)
		if err != nil {
			return false, backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			return false, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
		default:
			return false, backoff.Permanent(fmt.Errorf("unexpected gateway status: %d", resp.StatusCode))
		}
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.maxElapsed),
	)
}

func (s *httpStore) blobURL(id CID) string {
	return s.baseURL + "/blobs/" + string(id)
}
