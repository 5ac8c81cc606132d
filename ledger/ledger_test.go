package ledger_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/ledger"
	"github.com/modelfold/modelfold/model"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
)

const owner = "owner-wallet"

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	return ledger.New(model.Model{
		ID:    uuid.NewString(),
		Name:  "mnist-cnn",
		Owner: owner,
	}, "w1", ledger.NewClock())
}

func TestSubmitIdempotent(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, status, err := l.Submit("alice", 1, "g1")
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	for range 3 {
		_, status, err = l.Submit("alice", 1, "g1")
		require.NoError(t, err)
		assert.Equal(t, gradient.StatusDuplicate, status)
	}

	v, err := l.Version(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.GradientCount)
}

func TestSubmitUnknownVersion(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, _, err := l.Submit("alice", 7, "g1")
	assert.ErrorIs(t, err, ledger.ErrUnknownModelVersion)
}

func TestSubmitStaleVersion(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, _, err := l.Submit("alice", 1, "g1")
	require.NoError(t, err)

	_, err = l.Finalize(1, "w2", owner, nil)
	require.NoError(t, err)

	_, _, err = l.Submit("bob", 1, "g2")
	assert.ErrorIs(t, err, ledger.ErrStaleVersion)
}

func TestListPendingOrder(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	refs := []string{"g3", "g1", "g2"}
	for _, ref := range refs {
		_, _, err := l.Submit("alice", 1, ref)
		require.NoError(t, err)
	}

	pending, err := l.ListPending(1)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, ref := range refs {
		assert.Equal(t, ref, pending[i].GradientRef)
	}
}

func TestFinalizeScenario(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, status, err := l.Submit("alice", 1, "g-a")
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	_, status, err = l.Submit("alice", 1, "g-a")
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusDuplicate, status)

	_, status, err = l.Submit("bob", 1, "g-b")
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	v, err := l.Version(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.GradientCount)

	credits := make(map[string]int)
	v, err = l.Finalize(1, "w2", owner, func(identity string, _ uint64) {
		credits[identity]++
	})
	require.NoError(t, err)

	assert.Equal(t, "w2", v.WeightsRef)
	assert.True(t, v.Finalized)
	assert.Equal(t, uint64(2), v.GradientCount)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, credits)

	pending, err := l.ListPending(1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFinalizePreconditionOrder(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	cases := []struct {
		desc    string
		version uint64
		caller  string
		err     error
	}{
		{
			desc:    "missing version",
			version: 9,
			caller:  "mallory",
			err:     ledger.ErrModelNotFound,
		},
		{
			desc:    "non-owner",
			version: 1,
			caller:  "mallory",
			err:     pkgerrors.ErrNotAuthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := l.Finalize(tc.version, "w2", tc.caller, nil)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	// Failed attempts must not have changed anything.
	v, err := l.Version(1)
	require.NoError(t, err)
	assert.Equal(t, "w1", v.WeightsRef)
	assert.False(t, v.Finalized)
}

func TestFinalizeExactlyOnce(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, _, err := l.Submit("alice", 1, "g1")
	require.NoError(t, err)

	var credits int
	_, err = l.Finalize(1, "w2", owner, func(string, uint64) { credits++ })
	require.NoError(t, err)

	_, err = l.Finalize(1, "w3", owner, func(string, uint64) { credits++ })
	assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized)
	assert.Equal(t, 1, credits)

	v, err := l.Version(1)
	require.NoError(t, err)
	assert.Equal(t, "w2", v.WeightsRef)
}

func TestFinalizeRaceSingleWinner(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, _, err := l.Submit("alice", 1, "g1")
	require.NoError(t, err)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Finalize(1, "w2", owner, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestAdvance(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	_, err := l.Advance(owner)
	assert.ErrorIs(t, err, ledger.ErrVersionActive)

	_, err = l.Finalize(1, "w2", owner, nil)
	require.NoError(t, err)

	_, err = l.Advance("mallory")
	assert.ErrorIs(t, err, pkgerrors.ErrNotAuthorized)

	next, err := l.Advance(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Version)
	assert.Equal(t, "w2", next.WeightsRef)
	assert.False(t, next.Finalized)
	assert.Zero(t, next.GradientCount)

	// The new version accepts submissions, the old one does not.
	_, status, err := l.Submit("carol", 2, "g9")
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	_, _, err = l.Submit("carol", 1, "g9")
	assert.ErrorIs(t, err, ledger.ErrStaleVersion)

	assert.Equal(t, uint64(2), l.Model().LatestVersion)
}

func TestConcurrentSubmissions(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	const contributors = 8
	const perContributor = 10

	var wg sync.WaitGroup
	for c := range contributors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + c))
			for i := range perContributor {
				_, _, err := l.Submit(id, 1,("g" + string(rune('0'+i))))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	v, err := l.Version(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(contributors*perContributor), v.GradientCount)

	pending, err := l.ListPending(1)
	require.NoError(t, err)
	assert.Len(t, pending, contributors*perContributor)
}
