package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

const CTJSON string = "application/json"

type SDK interface {
	// CreateModel registers a model lineage whose initial weights blob is
	// already stored.
	//
	// example:
	//  model := sdk.Model{
	//    Name:  "mnist-classifier",
	//    Owner: "0xWALLET",
	//  }
	//  model, _ := sdk.CreateModel(model, "bafy...weights")
	//  fmt.Println(model)
	CreateModel(model Model, weightsRef string) (Model, error)

	// GetModel gets a model by id.
	//
	// example:
	//  model, _ := sdk.GetModel("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(model)
	GetModel(id string) (Model, error)

	// ListModels lists models.
	//
	// example:
	//  modelPage, _ := sdk.ListModels(0, 10)
	//  fmt.Println(modelPage)
	ListModels(offset, limit uint64) (ModelPage, error)

	// GetModelVersion gets one version of a model.
	//
	// example:
	//  version, _ := sdk.GetModelVersion("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 1)
	//  fmt.Println(version)
	GetModelVersion(modelID string, version uint64) (Version, error)

	// LatestModelVersion gets the newest version of a model.
	//
	// example:
	//  version, _ := sdk.LatestModelVersion("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(version)
	LatestModelVersion(modelID string) (Version, error)

	// AdvanceModelVersion opens the next version of a finalized lineage.
	//
	// example:
	//  version, _ := sdk.AdvanceModelVersion("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", "0xWALLET")
	//  fmt.Println(version)
	AdvanceModelVersion(modelID, caller string) (Version, error)

	// FinalizeModelVersion swaps in the aggregated weights and credits
	// contributors.
	//
	// example:
	//  version, _ := sdk.FinalizeModelVersion("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 1, "bafy...w2", "0xWALLET")
	//  fmt.Println(version)
	FinalizeModelVersion(modelID string, version uint64, weightsRef, caller string) (Version, error)

	// AggregateModelVersion runs server-side federated averaging over the
	// pending gradients and finalizes with the result.
	//
	// example:
	//  version, _ := sdk.AggregateModelVersion("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 1, "0xWALLET")
	//  fmt.Println(version)
	AggregateModelVersion(modelID string, version uint64, caller string) (Version, error)

	// SubmitGradient submits a gradient reference against a model version.
	//
	// example:
	//  g := sdk.Gradient{
	//    Contributor:  "0xWALLET",
	//    ModelID:      "b1d10738-c5d7-4ff1-8f4d-b9328ce6f040",
	//    ModelVersion: 1,
	//    GradientRef:  "bafy...grad",
	//  }
	//  g, _ = sdk.SubmitGradient(g)
	//  fmt.Println(g.Status)
	SubmitGradient(g Gradient) (Gradient, error)

	// ListPendingGradients lists the not-yet-aggregated gradients of a
	// model version.
	//
	// example:
	//  page, _ := sdk.ListPendingGradients("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 1, 0, 10)
	//  fmt.Println(page)
	ListPendingGradients(modelID string, version, offset, limit uint64) (GradientPage, error)

	// StartSession starts a training session on a model.
	//
	// example:
	//  session := sdk.Session{
	//    ModelID: "b1d10738-c5d7-4ff1-8f4d-b9328ce6f040",
	//    Config:  sdk.TrainingConfig{Epochs: 10, BatchSize: 32, LearningRate: 0.01, Optimizer: "adam"},
	//  }
	//  session, _ := sdk.StartSession(session)
	//  fmt.Println(session)
	StartSession(session Session) (Session, error)

	// GetSession gets a session by id.
	//
	// example:
	//  session, _ := sdk.GetSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(session)
	GetSession(id string) (Session, error)

	// ListSessions lists sessions.
	//
	// example:
	//  sessionPage, _ := sdk.ListSessions(0, 10)
	//  fmt.Println(sessionPage)
	ListSessions(offset, limit uint64) (SessionPage, error)

	// PauseSession pauses a running session.
	//
	// example:
	//  session, _ := sdk.PauseSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(session)
	PauseSession(id string) (Session, error)

	// ResumeSession resumes a paused session.
	//
	// example:
	//  session, _ := sdk.ResumeSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(session)
	ResumeSession(id string) (Session, error)

	// StopSession stops a running or paused session.
	//
	// example:
	//  session, _ := sdk.StopSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(session)
	StopSession(id string) (Session, error)

	// FailSession marks a session as failed with a reason.
	//
	// example:
	//  session, _ := sdk.FailSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", "worker crashed")
	//  fmt.Println(session)
	FailSession(id, reason string) (Session, error)

	// AdvanceEpoch records one finished epoch with its metrics.
	//
	// example:
	//  session, _ := sdk.AdvanceEpoch("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 0.42, 0.87)
	//  fmt.Println(session)
	AdvanceEpoch(id string, loss, accuracy float64) (Session, error)

	// RegisterContributor registers a contributor identity.
	//
	// example:
	//  c, _ := sdk.RegisterContributor("0xWALLET")
	//  fmt.Println(c)
	RegisterContributor(identity string) (Contributor, error)

	// GetContributor gets a contributor by identity.
	//
	// example:
	//  c, _ := sdk.GetContributor("0xWALLET")
	//  fmt.Println(c)
	GetContributor(identity string) (Contributor, error)

	// AwardReputation grants reputation to a contributor. Admin only.
	//
	// example:
	//  c, _ := sdk.AwardReputation("0xADMIN", "0xWALLET", 100)
	//  fmt.Println(c)
	AwardReputation(caller, identity string, amount uint64) (Contributor, error)

	// Leaderboard lists contributors ranked by reputation.
	//
	// example:
	//  page, _ := sdk.Leaderboard(0, 10)
	//  fmt.Println(page)
	Leaderboard(offset, limit uint64) (ContributorPage, error)
}

type coordSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &coordSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *coordSDK) processRequest(method, reqURL string, data []byte, expectedRespCodes ...int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	for _, code := range expectedRespCodes {
		if resp.StatusCode == code {
			return body, nil
		}
	}

	return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
}
