package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
)

var (
	ErrModelNotFound       = errors.New("model version not found")
	ErrUnknownModelVersion = errors.New("unknown model version")
	ErrStaleVersion        = errors.New("model version already finalized")
	ErrAlreadyFinalized    = errors.New("aggregation already finalized for this version")
	ErrVersionActive       = errors.New("latest version has not been finalized")
)

// CreditFunc is invoked by Finalize once per distinct contributor in the
// drained pending set, in first-submission order. It runs under the ledger
// lock and must not block.
type CreditFunc func(identity string, at uint64)

type record struct {
	version model.Version
	pending []gradient.Submission
	seen    map[string]struct{}
}

// Ledger holds the append-only version history and the per-version pending
// gradient sets for a single model lineage. One mutex serializes every
// mutation of the lineage; in particular it makes finalize — weights swap,
// pending drain, contributor credit — observable as a single unit.
type Ledger struct {
	mu       sync.Mutex
	clock    *Clock
	model    model.Model
	versions map[uint64]*record
	latest   uint64
}

// New creates the lineage and its first version. Version numbers start at 1.
func New(m model.Model, weightsRef string, clock *Clock) *Ledger {
	at := clock.Tick()
	m.CreatedAt = at
	m.LatestVersion = 1

	l := &Ledger{
		clock:    clock,
		model:    m,
		versions: make(map[uint64]*record),
		latest:   1,
	}
	l.versions[1] = &record{
		version: model.Version{
			ModelID:    m.ID,
			Version:    1,
			WeightsRef: weightsRef,
			Owner:      m.Owner,
			CreatedAt:  at,
			UpdatedAt:  at,
		},
		seen: make(map[string]struct{}),
	}

	return l
}

// Model returns a snapshot of the lineage metadata.
func (l *Ledger) Model() model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.model
	m.LatestVersion = l.latest

	return m
}

// Version returns a snapshot of the given version.
func (l *Ledger) Version(n uint64) (model.Version, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[n]
	if !ok {
		return model.Version{}, ErrUnknownModelVersion
	}

	return rec.version, nil
}

// Latest returns a snapshot of the newest version in the lineage.
func (l *Ledger) Latest() model.Version {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.versions[l.latest].version
}

// Submit admits a gradient reference into the pending set of the given
// version. A submission with a key already present is a no-op and reports
// StatusDuplicate, so retries are safe. GradientCount grows once per distinct
// key and never decreases, even after finalize drains the pending set.
func (l *Ledger) Submit(contributor string, version uint64, gradientRef string) (gradient.Submission, gradient.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[version]
	if !ok {
		return gradient.Submission{}, 0, ErrUnknownModelVersion
	}
	if rec.version.Finalized {
		return gradient.Submission{}, 0, ErrStaleVersion
	}

	key := submissionKey(contributor, gradientRef)
	if _, ok := rec.seen[key]; ok {
		return gradient.Submission{}, gradient.StatusDuplicate, nil
	}

	sub := gradient.Submission{
		Contributor:  contributor,
		ModelID:      l.model.ID,
		ModelVersion: version,
		GradientRef:  gradientRef,
		SubmittedAt:  l.clock.Tick(),
	}
	rec.seen[key] = struct{}{}
	rec.pending = append(rec.pending, sub)
	rec.version.GradientCount++

	return sub, gradient.StatusAccepted, nil
}

// ListPending returns the not-yet-aggregated submissions for a version in
// insertion order.
func (l *Ledger) ListPending(version uint64) ([]gradient.Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[version]
	if !ok {
		return nil, ErrUnknownModelVersion
	}

	out := make([]gradient.Submission, len(rec.pending))
	copy(out, rec.pending)

	return out, nil
}

// Finalize folds the pending set of a version into a new weights reference.
// Preconditions are checked in order: the version must exist, the caller must
// be the owner, and the version must not have been finalized before. On
// success the weights reference is replaced in place, the pending set is
// drained, and credit is invoked exactly once per distinct contributor. A
// second call on the same version fails with ErrAlreadyFinalized and has no
// side effects.
func (l *Ledger) Finalize(version uint64, newWeightsRef, caller string, credit CreditFunc) (model.Version, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[version]
	if !ok {
		return model.Version{}, ErrModelNotFound
	}
	if caller != rec.version.Owner {
		return model.Version{}, fmt.Errorf("%w: caller %q does not own version %d", pkgerrors.ErrNotAuthorized, caller, version)
	}
	if rec.version.Finalized {
		return model.Version{}, ErrAlreadyFinalized
	}

	at := l.clock.Tick()
	rec.version.WeightsRef = newWeightsRef
	rec.version.UpdatedAt = at
	rec.version.Finalized = true

	if credit != nil {
		credited := make(map[string]struct{}, len(rec.pending))
		for _, sub := range rec.pending {
			if _, ok := credited[sub.Contributor]; ok {
				continue
			}
			credited[sub.Contributor] = struct{}{}
			credit(sub.Contributor, at)
		}
	}

	rec.pending = nil
	rec.seen = make(map[string]struct{})

	return rec.version, nil
}

// Advance creates the next version of the lineage, inheriting the finalized
// weights of the current latest. Version numbers are strictly increasing.
// Advancing past a version that is still accepting gradients is an error;
// finalize and advance are deliberately separate steps.
func (l *Ledger) Advance(caller string) (model.Version, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.versions[l.latest]
	if caller != cur.version.Owner {
		return model.Version{}, fmt.Errorf("%w: caller %q does not own the lineage", pkgerrors.ErrNotAuthorized, caller)
	}
	if !cur.version.Finalized {
		return model.Version{}, ErrVersionActive
	}

	at := l.clock.Tick()
	next := l.latest + 1
	l.versions[next] = &record{
		version: model.Version{
			ModelID:    l.model.ID,
			Version:    next,
			WeightsRef: cur.version.WeightsRef,
			Owner:      cur.version.Owner,
			CreatedAt:  at,
			UpdatedAt:  at,
		},
		seen: make(map[string]struct{}),
	}
	l.latest = next
	l.model.LatestVersion = next

	return l.versions[next].version, nil
}

func submissionKey(contributor, gradientRef string) string {
	return contributor + "\x00" + gradientRef
}
