package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/session"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) CreateModel(ctx context.Context, m model.Model, weightsRef string) (model.Model, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-model").Add(1)
		mm.latency.With("method", "create-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateModel(ctx, m, weightsRef)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, modelID string) (model.Model, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model").Add(1)
		mm.latency.With("method", "get-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModel(ctx, modelID)
}

func (mm *metricsMiddleware) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-models").Add(1)
		mm.latency.With("method", "list-models").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListModels(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetModelVersion(ctx context.Context, modelID string, version uint64) (model.Version, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model-version").Add(1)
		mm.latency.With("method", "get-model-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModelVersion(ctx, modelID, version)
}

func (mm *metricsMiddleware) LatestModelVersion(ctx context.Context, modelID string) (model.Version, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "latest-model-version").Add(1)
		mm.latency.With("method", "latest-model-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.LatestModelVersion(ctx, modelID)
}

func (mm *metricsMiddleware) AdvanceModelVersion(ctx context.Context, modelID, caller string) (model.Version, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "advance-model-version").Add(1)
		mm.latency.With("method", "advance-model-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AdvanceModelVersion(ctx, modelID, caller)
}

func (mm *metricsMiddleware) FinalizeModelVersion(ctx context.Context, modelID string, version uint64, newWeightsRef, caller string) (model.Version, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "finalize-model-version").Add(1)
		mm.latency.With("method", "finalize-model-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.FinalizeModelVersion(ctx, modelID, version, newWeightsRef, caller)
}

func (mm *metricsMiddleware) AggregateModelVersion(ctx context.Context, modelID string, version uint64, caller string) (model.Version, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "aggregate-model-version").Add(1)
		mm.latency.With("method", "aggregate-model-version").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AggregateModelVersion(ctx, modelID, version, caller)
}

func (mm *metricsMiddleware) SubmitGradient(ctx context.Context, sub gradient.Submission) (gradient.Submission, gradient.Status, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-gradient").Add(1)
		mm.latency.With("method", "submit-gradient").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitGradient(ctx, sub)
}

func (mm *metricsMiddleware) ListPendingGradients(ctx context.Context, modelID string, version, offset, limit uint64) (gradient.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-pending-gradients").Add(1)
		mm.latency.With("method", "list-pending-gradients").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListPendingGradients(ctx, modelID, version, offset, limit)
}

func (mm *metricsMiddleware) StartSession(ctx context.Context, s session.Session) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "start-session").Add(1)
		mm.latency.With("method", "start-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StartSession(ctx, s)
}

func (mm *metricsMiddleware) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-session").Add(1)
		mm.latency.With("method", "get-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetSession(ctx, sessionID)
}

func (mm *metricsMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-sessions").Add(1)
		mm.latency.With("method", "list-sessions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListSessions(ctx, offset, limit)
}

func (mm *metricsMiddleware) PauseSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "pause-session").Add(1)
		mm.latency.With("method", "pause-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.PauseSession(ctx, sessionID)
}

func (mm *metricsMiddleware) ResumeSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "resume-session").Add(1)
		mm.latency.With("method", "resume-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ResumeSession(ctx, sessionID)
}

func (mm *metricsMiddleware) StopSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "stop-session").Add(1)
		mm.latency.With("method", "stop-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StopSession(ctx, sessionID)
}

func (mm *metricsMiddleware) FailSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "fail-session").Add(1)
		mm.latency.With("method", "fail-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.FailSession(ctx, sessionID, reason)
}

func (mm *metricsMiddleware) AdvanceEpoch(ctx context.Context, sessionID string, loss, accuracy float64) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "advance-epoch").Add(1)
		mm.latency.With("method", "advance-epoch").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AdvanceEpoch(ctx, sessionID, loss, accuracy)
}

func (mm *metricsMiddleware) RegisterContributor(ctx context.Context, identity string) (contributor.Contributor, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "register-contributor").Add(1)
		mm.latency.With("method", "register-contributor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RegisterContributor(ctx, identity)
}

func (mm *metricsMiddleware) GetContributor(ctx context.Context, identity string) (contributor.Contributor, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-contributor").Add(1)
		mm.latency.With("method", "get-contributor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetContributor(ctx, identity)
}

func (mm *metricsMiddleware) AwardReputation(ctx context.Context, caller, identity string, amount uint64) (contributor.Contributor, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "award-reputation").Add(1)
		mm.latency.With("method", "award-reputation").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AwardReputation(ctx, caller, identity, amount)
}

func (mm *metricsMiddleware) Leaderboard(ctx context.Context, offset, limit uint64) (contributor.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "leaderboard").Add(1)
		mm.latency.With("method", "leaderboard").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Leaderboard(ctx, offset, limit)
}
