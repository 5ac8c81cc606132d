package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const gradientsEndpoint = "/gradients"

type Gradient struct {
	Contributor  string `json:"contributor"`
	ModelID      string `json:"model_id"`
	ModelVersion uint64 `json:"model_version"`
	GradientRef  string `json:"gradient_ref"`
	SubmittedAt  uint64 `json:"submitted_at,omitempty"`
	Status       string `json:"status,omitempty"`
}

type GradientPage struct {
	Offset      uint64     `json:"offset"`
	Limit       uint64     `json:"limit"`
	Total       uint64     `json:"total"`
	Submissions []Gradient `json:"submissions"`
}

func (sdk *coordSDK) SubmitGradient(g Gradient) (Gradient, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return Gradient{}, err
	}

	url := sdk.coordinatorURL + gradientsEndpoint

	// Accepted submissions come back 201, duplicates 200.
	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated, http.StatusOK)
	if err != nil {
		return Gradient{}, err
	}

	var out Gradient
	if err := json.Unmarshal(body, &out); err != nil {
		return Gradient{}, err
	}

	return out, nil
}

func (sdk *coordSDK) ListPendingGradients(modelID string, version, offset, limit uint64) (GradientPage, error) {
	url := fmt.Sprintf("%s%s/%s/versions/%d/gradients%s", sdk.coordinatorURL, modelsEndpoint, modelID, version, pageQuery(offset, limit))

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return GradientPage{}, err
	}

	var p GradientPage
	if err := json.Unmarshal(body, &p); err != nil {
		return GradientPage{}, err
	}

	return p, nil
}
