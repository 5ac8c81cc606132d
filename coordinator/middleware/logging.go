package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/session"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) CreateModel(ctx context.Context, m model.Model, weightsRef string) (resp model.Model, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", resp.ID),
				slog.String("name", resp.Name),
				slog.String("owner", m.Owner),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create model failed", args...)

			return
		}
		lm.logger.Info("Create model completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateModel(ctx, m, weightsRef)
}

func (lm *loggingMiddleware) GetModel(ctx context.Context, modelID string) (resp model.Model, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model failed", args...)

			return
		}
		lm.logger.Info("Get model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModel(ctx, modelID)
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, offset, limit uint64) (resp model.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List models failed", args...)

			return
		}
		lm.logger.Info("List models completed successfully", args...)
	}(time.Now())

	return lm.svc.ListModels(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetModelVersion(ctx context.Context, modelID string, version uint64) (resp model.Version, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model version failed", args...)

			return
		}
		lm.logger.Info("Get model version completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModelVersion(ctx, modelID, version)
}

func (lm *loggingMiddleware) LatestModelVersion(ctx context.Context, modelID string) (resp model.Version, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", resp.Version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get latest model version failed", args...)

			return
		}
		lm.logger.Info("Get latest model version completed successfully", args...)
	}(time.Now())

	return lm.svc.LatestModelVersion(ctx, modelID)
}

func (lm *loggingMiddleware) AdvanceModelVersion(ctx context.Context, modelID, caller string) (resp model.Version, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", resp.Version),
			),
			slog.String("caller", caller),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Advance model version failed", args...)

			return
		}
		lm.logger.Info("Advance model version completed successfully", args...)
	}(time.Now())

	return lm.svc.AdvanceModelVersion(ctx, modelID, caller)
}

func (lm *loggingMiddleware) FinalizeModelVersion(ctx context.Context, modelID string, version uint64, newWeightsRef, caller string) (resp model.Version, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", version),
			),
			slog.String("weights_ref", newWeightsRef),
			slog.String("caller", caller),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Finalize model version failed", args...)

			return
		}
		lm.logger.Info("Finalize model version completed successfully", args...)
	}(time.Now())

	return lm.svc.FinalizeModelVersion(ctx, modelID, version, newWeightsRef, caller)
}

func (lm *loggingMiddleware) AggregateModelVersion(ctx context.Context, modelID string, version uint64, caller string) (resp model.Version, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", version),
			),
			slog.String("caller", caller),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Aggregate model version failed", args...)

			return
		}
		lm.logger.Info("Aggregate model version completed successfully", args...)
	}(time.Now())

	return lm.svc.AggregateModelVersion(ctx, modelID, version, caller)
}

func (lm *loggingMiddleware) SubmitGradient(ctx context.Context, sub gradient.Submission) (resp gradient.Submission, status gradient.Status, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("gradient",
				slog.String("model_id", sub.ModelID),
				slog.Uint64("version", sub.ModelVersion),
				slog.String("contributor", sub.Contributor),
				slog.String("status", status.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit gradient failed", args...)

			return
		}
		lm.logger.Info("Submit gradient completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitGradient(ctx, sub)
}

func (lm *loggingMiddleware) ListPendingGradients(ctx context.Context, modelID string, version, offset, limit uint64) (resp gradient.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
				slog.Uint64("version", version),
			),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List pending gradients failed", args...)

			return
		}
		lm.logger.Info("List pending gradients completed successfully", args...)
	}(time.Now())

	return lm.svc.ListPendingGradients(ctx, modelID, version, offset, limit)
}

func (lm *loggingMiddleware) StartSession(ctx context.Context, s session.Session) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", resp.ID),
				slog.String("name", resp.Name),
				slog.String("model_id", s.ModelID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start session failed", args...)

			return
		}
		lm.logger.Info("Start session completed successfully", args...)
	}(time.Now())

	return lm.svc.StartSession(ctx, s)
}

func (lm *loggingMiddleware) GetSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get session failed", args...)

			return
		}
		lm.logger.Info("Get session completed successfully", args...)
	}(time.Now())

	return lm.svc.GetSession(ctx, sessionID)
}

func (lm *loggingMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (resp session.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List sessions failed", args...)

			return
		}
		lm.logger.Info("List sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSessions(ctx, offset, limit)
}

func (lm *loggingMiddleware) PauseSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.String("state", resp.State.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Pause session failed", args...)

			return
		}
		lm.logger.Info("Pause session completed successfully", args...)
	}(time.Now())

	return lm.svc.PauseSession(ctx, sessionID)
}

func (lm *loggingMiddleware) ResumeSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.String("state", resp.State.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Resume session failed", args...)

			return
		}
		lm.logger.Info("Resume session completed successfully", args...)
	}(time.Now())

	return lm.svc.ResumeSession(ctx, sessionID)
}

func (lm *loggingMiddleware) StopSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.String("state", resp.State.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Stop session failed", args...)

			return
		}
		lm.logger.Info("Stop session completed successfully", args...)
	}(time.Now())

	return lm.svc.StopSession(ctx, sessionID)
}

func (lm *loggingMiddleware) FailSession(ctx context.Context, sessionID, reason string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.String("reason", reason),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Fail session failed", args...)

			return
		}
		lm.logger.Info("Fail session completed successfully", args...)
	}(time.Now())

	return lm.svc.FailSession(ctx, sessionID, reason)
}

func (lm *loggingMiddleware) AdvanceEpoch(ctx context.Context, sessionID string, loss, accuracy float64) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.Uint64("epoch", resp.CurrentEpoch),
				slog.Float64("loss", loss),
				slog.Float64("accuracy", accuracy),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Advance epoch failed", args...)

			return
		}
		lm.logger.Info("Advance epoch completed successfully", args...)
	}(time.Now())

	return lm.svc.AdvanceEpoch(ctx, sessionID, loss, accuracy)
}

func (lm *loggingMiddleware) RegisterContributor(ctx context.Context, identity string) (resp contributor.Contributor, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("contributor",
				slog.String("identity", identity),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Register contributor failed", args...)

			return
		}
		lm.logger.Info("Register contributor completed successfully", args...)
	}(time.Now())

	return lm.svc.RegisterContributor(ctx, identity)
}

func (lm *loggingMiddleware) GetContributor(ctx context.Context, identity string) (resp contributor.Contributor, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("contributor",
				slog.String("identity", identity),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get contributor failed", args...)

			return
		}
		lm.logger.Info("Get contributor completed successfully", args...)
	}(time.Now())

	return lm.svc.GetContributor(ctx, identity)
}

func (lm *loggingMiddleware) AwardReputation(ctx context.Context, caller, identity string, amount uint64) (resp contributor.Contributor, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("contributor",
				slog.String("identity", identity),
				slog.Uint64("amount", amount),
			),
			slog.String("caller", caller),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Award reputation failed", args...)

			return
		}
		lm.logger.Info("Award reputation completed successfully", args...)
	}(time.Now())

	return lm.svc.AwardReputation(ctx, caller, identity, amount)
}

func (lm *loggingMiddleware) Leaderboard(ctx context.Context, offset, limit uint64) (resp contributor.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get leaderboard failed", args...)

			return
		}
		lm.logger.Info("Get leaderboard completed successfully", args...)
	}(time.Now())

	return lm.svc.Leaderboard(ctx, offset, limit)
}
