package sdk

import (
	"encoding/json"
	"net/http"
)

const sessionsEndpoint = "/sessions"

type TrainingConfig struct {
	Epochs          uint64  `json:"epochs"`
	BatchSize       uint64  `json:"batch_size"`
	LearningRate    float64 `json:"learning_rate"`
	Optimizer       string  `json:"optimizer"`
	ValidationSplit float64 `json:"validation_split,omitempty"`
	DatasetRef      string  `json:"dataset_ref,omitempty"`
}

type EpochMetric struct {
	Epoch    uint64  `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

type Session struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name,omitempty"`
	ModelID        string         `json:"model_id"`
	Config         TrainingConfig `json:"config"`
	State          uint8          `json:"state,omitempty"`
	CurrentEpoch   uint64         `json:"current_epoch,omitempty"`
	MetricsHistory []EpochMetric  `json:"metrics_history,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	CreatedAt      uint64         `json:"created_at,omitempty"`
	UpdatedAt      uint64         `json:"updated_at,omitempty"`
}

type SessionPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

func (sdk *coordSDK) StartSession(session Session) (Session, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *coordSDK) GetSession(id string) (Session, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *coordSDK) ListSessions(offset, limit uint64) (SessionPage, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return SessionPage{}, err
	}

	var p SessionPage
	if err := json.Unmarshal(body, &p); err != nil {
		return SessionPage{}, err
	}

	return p, nil
}

func (sdk *coordSDK) PauseSession(id string) (Session, error) {
	return sdk.postSessionAction(id, "pause", nil)
}

func (sdk *coordSDK) ResumeSession(id string) (Session, error) {
	return sdk.postSessionAction(id, "resume", nil)
}

func (sdk *coordSDK) StopSession(id string) (Session, error) {
	return sdk.postSessionAction(id, "stop", nil)
}

func (sdk *coordSDK) FailSession(id, reason string) (Session, error) {
	data, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return Session{}, err
	}

	return sdk.postSessionAction(id, "fail", data)
}

func (sdk *coordSDK) AdvanceEpoch(id string, loss, accuracy float64) (Session, error) {
	data, err := json.Marshal(map[string]float64{
		"loss":     loss,
		"accuracy": accuracy,
	})
	if err != nil {
		return Session{}, err
	}

	return sdk.postSessionAction(id, "epochs", data)
}

func (sdk *coordSDK) postSessionAction(id, action string, data []byte) (Session, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/" + action
	if data == nil {
		data = []byte("{}")
	}

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}
