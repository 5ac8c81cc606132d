package contributor

import "errors"

var ErrUnknownContributor = errors.New("unknown contributor")

// Contributor accumulates reputation and contribution counters for one
// identity. Reputation only ever grows; there is no slashing path.
type Contributor struct {
	Identity           string `json:"identity"`
	Reputation         uint64 `json:"reputation"`
	Contributions      uint64 `json:"contributions"`
	RegisteredAt       uint64 `json:"registered_at"`
	LastContributionAt uint64 `json:"last_contribution_at,omitempty"`
}

type Page struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Contributors []Contributor `json:"contributors"`
}
