package model

// Model is the root of a lineage: the ordered history of versions that
// descend from one original set of weights.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	CreatedAt     uint64 `json:"created_at"`
	LatestVersion uint64 `json:"latest_version"`
}

// Version is one entry in a lineage. WeightsRef is a content identifier and
// changes exactly once, when the version is finalized. Timestamps are logical
// counters, not wall clock.
type Version struct {
	ModelID       string `json:"model_id"`
	Version       uint64 `json:"version"`
	WeightsRef    string `json:"weights_ref"`
	Owner         string `json:"owner"`
	CreatedAt     uint64 `json:"created_at"`
	UpdatedAt     uint64 `json:"updated_at"`
	GradientCount uint64 `json:"gradient_count"`
	Finalized     bool   `json:"finalized"`
}

type Page struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Models []Model `json:"models"`
}
