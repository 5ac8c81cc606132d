package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const modelsEndpoint = "/models"

type Model struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Owner         string `json:"owner"`
	WeightsRef    string `json:"weights_ref,omitempty"`
	LatestVersion uint64 `json:"latest_version,omitempty"`
	CreatedAt     uint64 `json:"created_at,omitempty"`
}

type ModelPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Models []Model `json:"models"`
}

type Version struct {
	ModelID       string `json:"model_id"`
	Version       uint64 `json:"version"`
	WeightsRef    string `json:"weights_ref"`
	Owner         string `json:"owner"`
	GradientCount uint64 `json:"gradient_count"`
	Finalized     bool   `json:"finalized"`
	CreatedAt     uint64 `json:"created_at"`
	UpdatedAt     uint64 `json:"updated_at"`
}

func (sdk *coordSDK) CreateModel(model Model, weightsRef string) (Model, error) {
	model.WeightsRef = weightsRef
	data, err := json.Marshal(model)
	if err != nil {
		return Model{}, err
	}

	url := sdk.coordinatorURL + modelsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *coordSDK) GetModel(id string) (Model, error) {
	url := sdk.coordinatorURL + modelsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *coordSDK) ListModels(offset, limit uint64) (ModelPage, error) {
	url := sdk.coordinatorURL + modelsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ModelPage{}, err
	}

	var p ModelPage
	if err := json.Unmarshal(body, &p); err != nil {
		return ModelPage{}, err
	}

	return p, nil
}

func (sdk *coordSDK) GetModelVersion(modelID string, version uint64) (Version, error) {
	url := fmt.Sprintf("%s%s/%s/versions/%d", sdk.coordinatorURL, modelsEndpoint, modelID, version)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Version{}, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return Version{}, err
	}

	return v, nil
}

func (sdk *coordSDK) LatestModelVersion(modelID string) (Version, error) {
	url := sdk.coordinatorURL + modelsEndpoint + "/" + modelID + "/versions/latest"

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Version{}, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return Version{}, err
	}

	return v, nil
}

func (sdk *coordSDK) AdvanceModelVersion(modelID, caller string) (Version, error) {
	data, err := json.Marshal(map[string]string{"caller": caller})
	if err != nil {
		return Version{}, err
	}

	url := sdk.coordinatorURL + modelsEndpoint + "/" + modelID + "/versions/advance"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Version{}, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return Version{}, err
	}

	return v, nil
}

func (sdk *coordSDK) FinalizeModelVersion(modelID string, version uint64, weightsRef, caller string) (Version, error) {
	data, err := json.Marshal(map[string]string{
		"weights_ref": weightsRef,
		"caller":      caller,
	})
	if err != nil {
		return Version{}, err
	}

	url := fmt.Sprintf("%s%s/%s/versions/%d/finalize", sdk.coordinatorURL, modelsEndpoint, modelID, version)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Version{}, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return Version{}, err
	}

	return v, nil
}

func (sdk *coordSDK) AggregateModelVersion(modelID string, version uint64, caller string) (Version, error) {
	data, err := json.Marshal(map[string]string{"caller": caller})
	if err != nil {
		return Version{}, err
	}

	url := fmt.Sprintf("%s%s/%s/versions/%d/aggregate", sdk.coordinatorURL, modelsEndpoint, modelID, version)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Version{}, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return Version{}, err
	}

	return v, nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
