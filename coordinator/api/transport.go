package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/pkg/api"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
)

const svcName = "coordinator"

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/models", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createModelEndpoint(svc),
			decodeCreateModelReq,
			api.EncodeResponse,
			opts...,
		), "create-model").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listModelsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-models").ServeHTTP)
		r.Route("/{modelID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getModelEndpoint(svc),
				decodeEntityReq("modelID"),
				api.EncodeResponse,
				opts...,
			), "get-model").ServeHTTP)
			r.Route("/versions", func(r chi.Router) {
				r.Get("/latest", otelhttp.NewHandler(kithttp.NewServer(
					latestModelVersionEndpoint(svc),
					decodeEntityReq("modelID"),
					api.EncodeResponse,
					opts...,
				), "latest-model-version").ServeHTTP)
				r.Post("/advance", otelhttp.NewHandler(kithttp.NewServer(
					advanceModelVersionEndpoint(svc),
					decodeAdvanceVersionReq,
					api.EncodeResponse,
					opts...,
				), "advance-model-version").ServeHTTP)
				r.Route("/{version}", func(r chi.Router) {
					r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
						getModelVersionEndpoint(svc),
						decodeVersionReq,
						api.EncodeResponse,
						opts...,
					), "get-model-version").ServeHTTP)
					r.Post("/finalize", otelhttp.NewHandler(kithttp.NewServer(
						finalizeModelVersionEndpoint(svc),
						decodeFinalizeVersionReq,
						api.EncodeResponse,
						opts...,
					), "finalize-model-version").ServeHTTP)
					r.Post("/aggregate", otelhttp.NewHandler(kithttp.NewServer(
						aggregateModelVersionEndpoint(svc),
						decodeAggregateVersionReq,
						api.EncodeResponse,
						opts...,
					), "aggregate-model-version").ServeHTTP)
					r.Get("/gradients", otelhttp.NewHandler(kithttp.NewServer(
						listPendingGradientsEndpoint(svc),
						decodeListPendingReq,
						api.EncodeResponse,
						opts...,
					), "list-pending-gradients").ServeHTTP)
				})
			})
		})
	})

	mux.Post("/gradients", otelhttp.NewHandler(kithttp.NewServer(
		submitGradientEndpoint(svc),
		decodeSubmitGradientReq,
		api.EncodeResponse,
		opts...,
	), "submit-gradient").ServeHTTP)

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			startSessionEndpoint(svc),
			decodeStartSessionReq,
			api.EncodeResponse,
			opts...,
		), "start-session").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listSessionsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-sessions").ServeHTTP)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "get-session").ServeHTTP)
			r.Post("/pause", otelhttp.NewHandler(kithttp.NewServer(
				pauseSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "pause-session").ServeHTTP)
			r.Post("/resume", otelhttp.NewHandler(kithttp.NewServer(
				resumeSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "resume-session").ServeHTTP)
			r.Post("/stop", otelhttp.NewHandler(kithttp.NewServer(
				stopSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "stop-session").ServeHTTP)
			r.Post("/fail", otelhttp.NewHandler(kithttp.NewServer(
				failSessionEndpoint(svc),
				decodeFailSessionReq,
				api.EncodeResponse,
				opts...,
			), "fail-session").ServeHTTP)
			r.Post("/epochs", otelhttp.NewHandler(kithttp.NewServer(
				advanceEpochEndpoint(svc),
				decodeAdvanceEpochReq,
				api.EncodeResponse,
				opts...,
			), "advance-epoch").ServeHTTP)
		})
	})

	mux.Route("/contributors", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			registerContributorEndpoint(svc),
			decodeRegisterContributorReq,
			api.EncodeResponse,
			opts...,
		), "register-contributor").ServeHTTP)
		r.Route("/{identity}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getContributorEndpoint(svc),
				decodeEntityReq("identity"),
				api.EncodeResponse,
				opts...,
			), "get-contributor").ServeHTTP)
			r.Post("/reputation", otelhttp.NewHandler(kithttp.NewServer(
				awardReputationEndpoint(svc),
				decodeAwardReputationReq,
				api.EncodeResponse,
				opts...,
			), "award-reputation").ServeHTTP)
		})
	})

	mux.Get("/leaderboard", otelhttp.NewHandler(kithttp.NewServer(
		leaderboardEndpoint(svc),
		decodeListEntityReq,
		api.EncodeResponse,
		opts...,
	), "leaderboard").ServeHTTP)

	mux.Get("/health", api.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := api.ReadNumQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	l, err := api.ReadNumQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeCreateModelReq(_ context.Context, r *http.Request) (any, error) {
	var req createModelReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeVersionReq(_ context.Context, r *http.Request) (any, error) {
	version, err := readVersionParam(r)
	if err != nil {
		return nil, err
	}

	return versionReq{
		modelID: chi.URLParam(r, "modelID"),
		version: version,
	}, nil
}

func decodeAdvanceVersionReq(_ context.Context, r *http.Request) (any, error) {
	var req advanceVersionReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	req.modelID = chi.URLParam(r, "modelID")

	return req, nil
}

func decodeFinalizeVersionReq(_ context.Context, r *http.Request) (any, error) {
	var req finalizeVersionReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	version, err := readVersionParam(r)
	if err != nil {
		return nil, err
	}
	req.modelID = chi.URLParam(r, "modelID")
	req.version = version

	return req, nil
}

func decodeAggregateVersionReq(_ context.Context, r *http.Request) (any, error) {
	var req aggregateVersionReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	version, err := readVersionParam(r)
	if err != nil {
		return nil, err
	}
	req.modelID = chi.URLParam(r, "modelID")
	req.version = version

	return req, nil
}

func decodeListPendingReq(_ context.Context, r *http.Request) (any, error) {
	version, err := readVersionParam(r)
	if err != nil {
		return nil, err
	}

	o, err := api.ReadNumQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}
	l, err := api.ReadNumQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return listPendingReq{
		modelID: chi.URLParam(r, "modelID"),
		version: version,
		offset:  o,
		limit:   l,
	}, nil
}

func decodeSubmitGradientReq(_ context.Context, r *http.Request) (any, error) {
	var req submitGradientReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeStartSessionReq(_ context.Context, r *http.Request) (any, error) {
	var req startSessionReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeFailSessionReq(_ context.Context, r *http.Request) (any, error) {
	var req failSessionReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	req.id = chi.URLParam(r, "sessionID")

	return req, nil
}

func decodeAdvanceEpochReq(_ context.Context, r *http.Request) (any, error) {
	var req advanceEpochReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	req.id = chi.URLParam(r, "sessionID")

	return req, nil
}

func decodeRegisterContributorReq(_ context.Context, r *http.Request) (any, error) {
	var req registerContributorReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeAwardReputationReq(_ context.Context, r *http.Request) (any, error) {
	var req awardReputationReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	req.identity = chi.URLParam(r, "identity")

	return req, nil
}

func decodeJSON(r *http.Request, into any) error {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return errors.Join(api.ErrValidation, api.ErrUnsupportedContentType)
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return errors.Join(api.ErrValidation, err)
	}

	return nil
}

func readVersionParam(r *http.Request) (uint64, error) {
	version, err := strconv.ParseUint(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		return 0, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
	}

	return version, nil
}
