package api

import (
	"fmt"
	"net/http"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/pkg/api"
	"github.com/modelfold/modelfold/session"
)

var (
	_ api.Response = (*modelResponse)(nil)
	_ api.Response = (*listModelResponse)(nil)
	_ api.Response = (*versionResponse)(nil)
	_ api.Response = (*gradientResponse)(nil)
	_ api.Response = (*listGradientResponse)(nil)
	_ api.Response = (*sessionResponse)(nil)
	_ api.Response = (*listSessionResponse)(nil)
	_ api.Response = (*contributorResponse)(nil)
	_ api.Response = (*leaderboardResponse)(nil)
)

type modelResponse struct {
	model.Model
	created bool
}

func (m modelResponse) Code() int {
	if m.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (m modelResponse) Headers() map[string]string {
	if m.created {
		return map[string]string{
			"Location": "/models/" + m.ID,
		}
	}

	return map[string]string{}
}

func (m modelResponse) Empty() bool {
	return false
}

type listModelResponse struct {
	model.Page
}

func (l listModelResponse) Code() int {
	return http.StatusOK
}

func (l listModelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listModelResponse) Empty() bool {
	return false
}

type versionResponse struct {
	model.Version
	created bool
}

func (v versionResponse) Code() int {
	if v.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (v versionResponse) Headers() map[string]string {
	if v.created {
		return map[string]string{
			"Location": fmt.Sprintf("/models/%s/versions/%d", v.ModelID, v.Version.Version),
		}
	}

	return map[string]string{}
}

func (v versionResponse) Empty() bool {
	return false
}

type gradientResponse struct {
	gradient.Submission
	Status string `json:"status"`

	accepted bool
}

func (g gradientResponse) Code() int {
	if g.accepted {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (g gradientResponse) Headers() map[string]string {
	return map[string]string{}
}

func (g gradientResponse) Empty() bool {
	return false
}

type listGradientResponse struct {
	gradient.Page
}

func (l listGradientResponse) Code() int {
	return http.StatusOK
}

func (l listGradientResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listGradientResponse) Empty() bool {
	return false
}

type sessionResponse struct {
	session.Session
	created bool
}

func (s sessionResponse) Code() int {
	if s.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (s sessionResponse) Headers() map[string]string {
	if s.created {
		return map[string]string{
			"Location": "/sessions/" + s.ID,
		}
	}

	return map[string]string{}
}

func (s sessionResponse) Empty() bool {
	return false
}

type listSessionResponse struct {
	session.Page
}

func (l listSessionResponse) Code() int {
	return http.StatusOK
}

func (l listSessionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listSessionResponse) Empty() bool {
	return false
}

type contributorResponse struct {
	contributor.Contributor
	created bool
}

func (c contributorResponse) Code() int {
	if c.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (c contributorResponse) Headers() map[string]string {
	if c.created {
		return map[string]string{
			"Location": "/contributors/" + c.Identity,
		}
	}

	return map[string]string{}
}

func (c contributorResponse) Empty() bool {
	return false
}

type leaderboardResponse struct {
	contributor.Page
}

func (l leaderboardResponse) Code() int {
	return http.StatusOK
}

func (l leaderboardResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l leaderboardResponse) Empty() bool {
	return false
}
