package contributor

import (
	"sort"
	"sync"
)

// Registry is the contributor ledger. All counters are strictly additive.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Contributor
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Contributor),
	}
}

// Register creates a zero-valued contributor if absent. Re-registering is a
// no-op; the original registration timestamp is kept.
func (r *Registry) Register(identity string, at uint64) Contributor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return *r.register(identity, at)
}

func (r *Registry) register(identity string, at uint64) *Contributor {
	if c, ok := r.byID[identity]; ok {
		return c
	}

	c := &Contributor{
		Identity:     identity,
		RegisteredAt: at,
	}
	r.byID[identity] = c

	return c
}

// RecordContribution credits one accepted contribution. Unregistered
// identities are registered on the spot so that submitting a gradient never
// requires a separate registration step.
func (r *Registry) RecordContribution(identity string, reward, at uint64) Contributor {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.register(identity, at)
	c.Contributions++
	c.Reputation += reward
	c.LastContributionAt = at

	return *c
}

// AwardReputation adds amount to the identity's reputation. Authorization is
// the caller's responsibility.
func (r *Registry) AwardReputation(identity string, amount, at uint64) (Contributor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[identity]
	if !ok {
		return Contributor{}, ErrUnknownContributor
	}
	c.Reputation += amount

	return *c, nil
}

func (r *Registry) Get(identity string) (Contributor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[identity]
	if !ok {
		return Contributor{}, ErrUnknownContributor
	}

	return *c, nil
}

// Leaderboard returns contributors ordered by reputation descending, ties
// broken by earliest registration.
func (r *Registry) Leaderboard() []Contributor {
	r.mu.Lock()
	defer r.mu.Unlock()

	board := make([]Contributor, 0, len(r.byID))
	for _, c := range r.byID {
		board = append(board, *c)
	}

	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Reputation != board[j].Reputation {
			return board[i].Reputation > board[j].Reputation
		}

		return board[i].RegisteredAt < board[j].RegisteredAt
	})

	return board
}
