package gradient

type Status uint8

const (
	StatusAccepted Status = iota
	StatusDuplicate
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "Accepted"
	case StatusDuplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}

// Submission is an admitted gradient reference. It is immutable once admitted;
// the key (Contributor, ModelVersion, GradientRef) identifies it, so retrying
// the same submission is a no-op.
type Submission struct {
	Contributor  string `json:"contributor"`
	ModelID      string `json:"model_id"`
	ModelVersion uint64 `json:"model_version"`
	GradientRef  string `json:"gradient_ref"`
	SubmittedAt  uint64 `json:"submitted_at"`
}

type Page struct {
	Offset      uint64       `json:"offset"`
	Limit       uint64       `json:"limit"`
	Total       uint64       `json:"total"`
	Submissions []Submission `json:"submissions"`
}
