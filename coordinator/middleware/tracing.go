package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/session"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) CreateModel(ctx context.Context, m model.Model, weightsRef string) (model.Model, error) {
	ctx, span := tm.tracer.Start(ctx, "create-model", trace.WithAttributes(
		attribute.String("owner", m.Owner),
		attribute.String("weights_ref", weightsRef),
	))
	defer span.End()

	return tm.svc.CreateModel(ctx, m, weightsRef)
}

func (tm *tracing) GetModel(ctx context.Context, modelID string) (model.Model, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.String("model_id", modelID),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, modelID)
}

func (tm *tracing) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-models", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListModels(ctx, offset, limit)
}

func (tm *tracing) GetModelVersion(ctx context.Context, modelID string, version uint64) (model.Version, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model-version", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.GetModelVersion(ctx, modelID, version)
}

func (tm *tracing) LatestModelVersion(ctx context.Context, modelID string) (model.Version, error) {
	ctx, span := tm.tracer.Start(ctx, "latest-model-version", trace.WithAttributes(
		attribute.String("model_id", modelID),
	))
	defer span.End()

	return tm.svc.LatestModelVersion(ctx, modelID)
}

func (tm *tracing) AdvanceModelVersion(ctx context.Context, modelID, caller string) (model.Version, error) {
	ctx, span := tm.tracer.Start(ctx, "advance-model-version", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.String("caller", caller),
	))
	defer span.End()

	return tm.svc.AdvanceModelVersion(ctx, modelID, caller)
}

func (tm *tracing) FinalizeModelVersion(ctx context.Context, modelID string, version uint64, newWeightsRef, caller string) (model.Version, error) {
	ctx, span := tm.tracer.Start(ctx, "finalize-model-version", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Int64("version", int64(version)),
		attribute.String("caller", caller),
	))
	defer span.End()

	return tm.svc.FinalizeModelVersion(ctx, modelID, version, newWeightsRef, caller)
}

func (tm *tracing) AggregateModelVersion(ctx context.Context, modelID string, version uint64, caller string) (model.Version, error) {
	ctx, span := tm.tracer.Start(ctx, "aggregate-model-version", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.AggregateModelVersion(ctx, modelID, version, caller)
}

func (tm *tracing) SubmitGradient(ctx context.Context, sub gradient.Submission) (gradient.Submission, gradient.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-gradient", trace.WithAttributes(
		attribute.String("model_id", sub.ModelID),
		attribute.Int64("version", int64(sub.ModelVersion)),
		attribute.String("contributor", sub.Contributor),
	))
	defer span.End()

	return tm.svc.SubmitGradient(ctx, sub)
}

func (tm *tracing) ListPendingGradients(ctx context.Context, modelID string, version, offset, limit uint64) (gradient.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-pending-gradients", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.ListPendingGradients(ctx, modelID, version, offset, limit)
}

func (tm *tracing) StartSession(ctx context.Context, s session.Session) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "start-session", trace.WithAttributes(
		attribute.String("model_id", s.ModelID),
		attribute.String("name", s.Name),
	))
	defer span.End()

	return tm.svc.StartSession(ctx, s)
}

func (tm *tracing) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "get-session", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.GetSession(ctx, sessionID)
}

func (tm *tracing) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-sessions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListSessions(ctx, offset, limit)
}

func (tm *tracing) PauseSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "pause-session", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.PauseSession(ctx, sessionID)
}

func (tm *tracing) ResumeSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "resume-session", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.ResumeSession(ctx, sessionID)
}

func (tm *tracing) StopSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "stop-session", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.StopSession(ctx, sessionID)
}

func (tm *tracing) FailSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "fail-session", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("reason", reason),
	))
	defer span.End()

	return tm.svc.FailSession(ctx, sessionID, reason)
}

func (tm *tracing) AdvanceEpoch(ctx context.Context, sessionID string, loss, accuracy float64) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "advance-epoch", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.Float64("loss", loss),
		attribute.Float64("accuracy", accuracy),
	))
	defer span.End()

	return tm.svc.AdvanceEpoch(ctx, sessionID, loss, accuracy)
}

func (tm *tracing) RegisterContributor(ctx context.Context, identity string) (contributor.Contributor, error) {
	ctx, span := tm.tracer.Start(ctx, "register-contributor", trace.WithAttributes(
		attribute.String("identity", identity),
	))
	defer span.End()

	return tm.svc.RegisterContributor(ctx, identity)
}

func (tm *tracing) GetContributor(ctx context.Context, identity string) (contributor.Contributor, error) {
	ctx, span := tm.tracer.Start(ctx, "get-contributor", trace.WithAttributes(
		attribute.String("identity", identity),
	))
	defer span.End()

	return tm.svc.GetContributor(ctx, identity)
}

func (tm *tracing) AwardReputation(ctx context.Context, caller, identity string, amount uint64) (contributor.Contributor, error) {
	ctx, span := tm.tracer.Start(ctx, "award-reputation", trace.WithAttributes(
		attribute.String("identity", identity),
		attribute.Int64("amount", int64(amount)),
	))
	defer span.End()

	return tm.svc.AwardReputation(ctx, caller, identity, amount)
}

func (tm *tracing) Leaderboard(ctx context.Context, offset, limit uint64) (contributor.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "leaderboard", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.Leaderboard(ctx, offset, limit)
}
