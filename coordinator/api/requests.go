package api

import (
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/pkg/api"
	"github.com/modelfold/modelfold/session"
)

type createModelReq struct {
	model.Model `json:",inline"`
	WeightsRef  string `json:"weights_ref"`
	Caller      string `json:"caller"`
}

func (r *createModelReq) validate() error {
	if r.Owner == "" && r.Caller == "" {
		return api.ErrMissingID
	}
	if r.Owner == "" {
		r.Owner = r.Caller
	}

	return nil
}

type entityReq struct {
	id string
}

func (r *entityReq) validate() error {
	if r.id == "" {
		return api.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (r *listEntityReq) validate() error {
	return nil
}

type versionReq struct {
	modelID string
	version uint64
}

func (r *versionReq) validate() error {
	if r.modelID == "" {
		return api.ErrMissingID
	}

	return nil
}

type advanceVersionReq struct {
	modelID string
	Caller  string `json:"caller"`
}

func (r *advanceVersionReq) validate() error {
	if r.modelID == "" || r.Caller == "" {
		return api.ErrMissingID
	}

	return nil
}

type finalizeVersionReq struct {
	modelID    string
	version    uint64
	WeightsRef string `json:"weights_ref"`
	Caller     string `json:"caller"`
}

func (r *finalizeVersionReq) validate() error {
	if r.modelID == "" || r.Caller == "" {
		return api.ErrMissingID
	}

	return nil
}

type aggregateVersionReq struct {
	modelID string
	version uint64
	Caller  string `json:"caller"`
}

func (r *aggregateVersionReq) validate() error {
	if r.modelID == "" || r.Caller == "" {
		return api.ErrMissingID
	}

	return nil
}

type listPendingReq struct {
	modelID       string
	version       uint64
	offset, limit uint64
}

func (r *listPendingReq) validate() error {
	if r.modelID == "" {
		return api.ErrMissingID
	}

	return nil
}

type submitGradientReq struct {
	gradient.Submission `json:",inline"`
}

func (r *submitGradientReq) validate() error {
	if r.Contributor == "" || r.ModelID == "" || r.GradientRef == "" {
		return api.ErrMissingID
	}

	return nil
}

type startSessionReq struct {
	session.Session `json:",inline"`
}

func (r *startSessionReq) validate() error {
	if r.ModelID == "" {
		return api.ErrMissingID
	}

	return nil
}

type failSessionReq struct {
	id     string
	Reason string `json:"reason"`
}

func (r *failSessionReq) validate() error {
	if r.id == "" {
		return api.ErrMissingID
	}

	return nil
}

type advanceEpochReq struct {
	id       string
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

func (r *advanceEpochReq) validate() error {
	if r.id == "" {
		return api.ErrMissingID
	}

	return nil
}

type registerContributorReq struct {
	Identity string `json:"identity"`
}

func (r *registerContributorReq) validate() error {
	if r.Identity == "" {
		return api.ErrMissingID
	}

	return nil
}

type awardReputationReq struct {
	identity string
	Caller   string `json:"caller"`
	Amount   uint64 `json:"amount"`
}

func (r *awardReputationReq) validate() error {
	if r.identity == "" || r.Caller == "" {
		return api.ErrMissingID
	}

	return nil
}
