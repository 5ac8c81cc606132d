package api

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/pkg/api"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
	"github.com/modelfold/modelfold/session"
)

func createModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(createModelReq)
		if !ok {
			return modelResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelResponse{}, errors.Join(api.ErrValidation, err)
		}

		m, err := svc.CreateModel(ctx, req.Model, req.WeightsRef)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			Model:   m,
			created: true,
		}, nil
	}
}

func getModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return modelResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelResponse{}, errors.Join(api.ErrValidation, err)
		}

		m, err := svc.GetModel(ctx, req.id)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			Model: m,
		}, nil
	}
}

func listModelsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listModelResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listModelResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ListModels(ctx, req.offset, req.limit)
		if err != nil {
			return listModelResponse{}, err
		}

		return listModelResponse{
			Page: page,
		}, nil
	}
}

func getModelVersionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(versionReq)
		if !ok {
			return versionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(api.ErrValidation, err)
		}

		v, err := svc.GetModelVersion(ctx, req.modelID, req.version)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{
			Version: v,
		}, nil
	}
}

func latestModelVersionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return versionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(api.ErrValidation, err)
		}

		v, err := svc.LatestModelVersion(ctx, req.id)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{
			Version: v,
		}, nil
	}
}

func advanceModelVersionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(advanceVersionReq)
		if !ok {
			return versionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(api.ErrValidation, err)
		}

		v, err := svc.AdvanceModelVersion(ctx, req.modelID, req.Caller)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{
			Version: v,
			created: true,
		}, nil
	}
}

func finalizeModelVersionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(finalizeVersionReq)
		if !ok {
			return versionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(api.ErrValidation, err)
		}

		v, err := svc.FinalizeModelVersion(ctx, req.modelID, req.version, req.WeightsRef, req.Caller)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{
			Version: v,
		}, nil
	}
}

func aggregateModelVersionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(aggregateVersionReq)
		if !ok {
			return versionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return versionResponse{}, errors.Join(api.ErrValidation, err)
		}

		v, err := svc.AggregateModelVersion(ctx, req.modelID, req.version, req.Caller)
		if err != nil {
			return versionResponse{}, err
		}

		return versionResponse{
			Version: v,
		}, nil
	}
}

func listPendingGradientsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listPendingReq)
		if !ok {
			return listGradientResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listGradientResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ListPendingGradients(ctx, req.modelID, req.version, req.offset, req.limit)
		if err != nil {
			return listGradientResponse{}, err
		}

		return listGradientResponse{
			Page: page,
		}, nil
	}
}

func submitGradientEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(submitGradientReq)
		if !ok {
			return gradientResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return gradientResponse{}, errors.Join(api.ErrValidation, err)
		}

		sub, status, err := svc.SubmitGradient(ctx, req.Submission)
		if err != nil {
			return gradientResponse{}, err
		}

		return gradientResponse{
			Submission: sub,
			Status:     status.String(),
			accepted:   status == gradient.StatusAccepted,
		}, nil
	}
}

func startSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(startSessionReq)
		if !ok {
			return sessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		s, err := svc.StartSession(ctx, req.Session)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: s,
			created: true,
		}, nil
	}
}

func getSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return sessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		s, err := svc.GetSession(ctx, req.id)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: s,
		}, nil
	}
}

func listSessionsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listSessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listSessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ListSessions(ctx, req.offset, req.limit)
		if err != nil {
			return listSessionResponse{}, err
		}

		return listSessionResponse{
			Page: page,
		}, nil
	}
}

func pauseSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return sessionTransitionEndpoint(svc.PauseSession)
}

func resumeSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return sessionTransitionEndpoint(svc.ResumeSession)
}

func stopSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return sessionTransitionEndpoint(svc.StopSession)
}

func sessionTransitionEndpoint(apply func(context.Context, string) (session.Session, error)) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return sessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		s, err := apply(ctx, req.id)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: s,
		}, nil
	}
}

func failSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(failSessionReq)
		if !ok {
			return sessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		s, err := svc.FailSession(ctx, req.id, req.Reason)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: s,
		}, nil
	}
}

func advanceEpochEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(advanceEpochReq)
		if !ok {
			return sessionResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(api.ErrValidation, err)
		}

		s, err := svc.AdvanceEpoch(ctx, req.id, req.Loss, req.Accuracy)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: s,
		}, nil
	}
}

func registerContributorEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(registerContributorReq)
		if !ok {
			return contributorResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return contributorResponse{}, errors.Join(api.ErrValidation, err)
		}

		c, err := svc.RegisterContributor(ctx, req.Identity)
		if err != nil {
			return contributorResponse{}, err
		}

		return contributorResponse{
			Contributor: c,
			created:     true,
		}, nil
	}
}

func getContributorEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return contributorResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return contributorResponse{}, errors.Join(api.ErrValidation, err)
		}

		c, err := svc.GetContributor(ctx, req.id)
		if err != nil {
			return contributorResponse{}, err
		}

		return contributorResponse{
			Contributor: c,
		}, nil
	}
}

func awardReputationEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(awardReputationReq)
		if !ok {
			return contributorResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return contributorResponse{}, errors.Join(api.ErrValidation, err)
		}

		c, err := svc.AwardReputation(ctx, req.Caller, req.identity, req.Amount)
		if err != nil {
			return contributorResponse{}, err
		}

		return contributorResponse{
			Contributor: c,
		}, nil
	}
}

func leaderboardEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return leaderboardResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return leaderboardResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.Leaderboard(ctx, req.offset, req.limit)
		if err != nil {
			return leaderboardResponse{}, err
		}

		return leaderboardResponse{
			Page: page,
		}, nil
	}
}
