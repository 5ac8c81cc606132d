package coordinator

import (
	"context"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/session"
)

// Service is the coordination boundary. Dashboards, CLIs and chain watchers
// all go through it; nothing mutates the ledgers or sessions directly.
type Service interface {
	// CreateModel creates a lineage and its first version, whose weights
	// blob must already be stored.
	CreateModel(ctx context.Context, m model.Model, weightsRef string) (model.Model, error)
	GetModel(ctx context.Context, modelID string) (model.Model, error)
	ListModels(ctx context.Context, offset, limit uint64) (model.Page, error)
	GetModelVersion(ctx context.Context, modelID string, version uint64) (model.Version, error)
	LatestModelVersion(ctx context.Context, modelID string) (model.Version, error)

	// AdvanceModelVersion opens version n+1 of a lineage whose latest
	// version has been finalized.
	AdvanceModelVersion(ctx context.Context, modelID, caller string) (model.Version, error)

	// FinalizeModelVersion folds the pending gradients of a version into
	// the given weights reference and credits contributors, exactly once.
	FinalizeModelVersion(ctx context.Context, modelID string, version uint64, newWeightsRef, caller string) (model.Version, error)

	// AggregateModelVersion runs federated averaging over the pending
	// gradient blobs, stores the result and finalizes with it.
	AggregateModelVersion(ctx context.Context, modelID string, version uint64, caller string) (model.Version, error)

	// SubmitGradient admits a gradient reference whose blob is already in
	// the content store. Duplicate submissions are reported, not failed.
	SubmitGradient(ctx context.Context, sub gradient.Submission) (gradient.Submission, gradient.Status, error)
	ListPendingGradients(ctx context.Context, modelID string, version, offset, limit uint64) (gradient.Page, error)

	StartSession(ctx context.Context, s session.Session) (session.Session, error)
	GetSession(ctx context.Context, sessionID string) (session.Session, error)
	ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error)
	PauseSession(ctx context.Context, sessionID string) (session.Session, error)
	ResumeSession(ctx context.Context, sessionID string) (session.Session, error)
	StopSession(ctx context.Context, sessionID string) (session.Session, error)
	FailSession(ctx context.Context, sessionID, reason string) (session.Session, error)
	AdvanceEpoch(ctx context.Context, sessionID string, loss, accuracy float64) (session.Session, error)

	RegisterContributor(ctx context.Context, identity string) (contributor.Contributor, error)
	GetContributor(ctx context.Context, identity string) (contributor.Contributor, error)
	AwardReputation(ctx context.Context, caller, identity string, amount uint64) (contributor.Contributor, error)
	Leaderboard(ctx context.Context, offset, limit uint64) (contributor.Page, error)
}
