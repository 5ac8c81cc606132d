package sdk

import (
	"encoding/json"
	"net/http"
)

const (
	contributorsEndpoint = "/contributors"
	leaderboardEndpoint  = "/leaderboard"
)

type Contributor struct {
	Identity           string `json:"identity"`
	Reputation         uint64 `json:"reputation"`
	Contributions      uint64 `json:"contributions"`
	RegisteredAt       uint64 `json:"registered_at,omitempty"`
	LastContributionAt uint64 `json:"last_contribution_at,omitempty"`
}

type ContributorPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Contributors []Contributor `json:"contributors"`
}

func (sdk *coordSDK) RegisterContributor(identity string) (Contributor, error) {
	data, err := json.Marshal(map[string]string{"identity": identity})
	if err != nil {
		return Contributor{}, err
	}

	url := sdk.coordinatorURL + contributorsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Contributor{}, err
	}

	var c Contributor
	if err := json.Unmarshal(body, &c); err != nil {
		return Contributor{}, err
	}

	return c, nil
}

func (sdk *coordSDK) GetContributor(identity string) (Contributor, error) {
	url := sdk.coordinatorURL + contributorsEndpoint + "/" + identity

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Contributor{}, err
	}

	var c Contributor
	if err := json.Unmarshal(body, &c); err != nil {
		return Contributor{}, err
	}

	return c, nil
}

func (sdk *coordSDK) AwardReputation(caller, identity string, amount uint64) (Contributor, error) {
	data, err := json.Marshal(map[string]any{
		"caller": caller,
		"amount": amount,
	})
	if err != nil {
		return Contributor{}, err
	}

	url := sdk.coordinatorURL + contributorsEndpoint + "/" + identity + "/reputation"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Contributor{}, err
	}

	var c Contributor
	if err := json.Unmarshal(body, &c); err != nil {
		return Contributor{}, err
	}

	return c, nil
}

func (sdk *coordSDK) Leaderboard(offset, limit uint64) (ContributorPage, error) {
	url := sdk.coordinatorURL + leaderboardEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ContributorPage{}, err
	}

	var p ContributorPage
	if err := json.Unmarshal(body, &p); err != nil {
		return ContributorPage{}, err
	}

	return p, nil
}
