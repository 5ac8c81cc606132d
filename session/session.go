package session

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid training config")
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrSessionConflict   = errors.New("an active session already exists for this model")

	errEpochs          = errors.New("epochs must be greater than zero")
	errBatchSize       = errors.New("batch size must be greater than zero")
	errLearningRate    = errors.New("learning rate must be greater than zero")
	errOptimizer       = errors.New("unknown optimizer kind")
	errValidationSplit = errors.New("validation split must be in [0, 1)")
)

type State uint8

const (
	Created State = iota
	Running
	Paused
	Completed
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Completed:
		return "Completed"
	case Stopped:
		return "Stopped"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == Completed || s == Stopped || s == Failed
}

type Optimizer string

const (
	OptimizerSGD     Optimizer = "sgd"
	OptimizerAdam    Optimizer = "adam"
	OptimizerRMSProp Optimizer = "rmsprop"
)

type Config struct {
	Epochs          uint64    `json:"epochs"`
	BatchSize       uint64    `json:"batch_size"`
	LearningRate    float64   `json:"learning_rate"`
	Optimizer       Optimizer `json:"optimizer"`
	ValidationSplit float64   `json:"validation_split"`
	DatasetRef      string    `json:"dataset_ref,omitempty"`
}

func (c Config) Validate() error {
	if c.Epochs == 0 {
		return errors.Join(ErrInvalidConfig, errEpochs)
	}
	if c.BatchSize == 0 {
		return errors.Join(ErrInvalidConfig, errBatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Join(ErrInvalidConfig, errLearningRate)
	}
	switch c.Optimizer {
	case OptimizerSGD, OptimizerAdam, OptimizerRMSProp:
	default:
		return errors.Join(ErrInvalidConfig, errOptimizer)
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		return errors.Join(ErrInvalidConfig, errValidationSplit)
	}

	return nil
}

type EpochMetric struct {
	Epoch    uint64  `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// Transition records one state change with a logical timestamp.
type Transition struct {
	From   State  `json:"from"`
	To     State  `json:"to"`
	At     uint64 `json:"at"`
	Reason string `json:"reason,omitempty"`
}

type Session struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	ModelID        string        `json:"model_id"`
	Config         Config        `json:"config"`
	State          State         `json:"state"`
	CurrentEpoch   uint64        `json:"current_epoch"`
	MetricsHistory []EpochMetric `json:"metrics_history,omitempty"`
	Transitions    []Transition  `json:"transitions,omitempty"`
	FailureReason  string        `json:"failure_reason,omitempty"`
	CreatedAt      uint64        `json:"created_at"`
	UpdatedAt      uint64        `json:"updated_at"`
}

type Page struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

func New(id, name, modelID string, cfg Config, at uint64) Session {
	return Session{
		ID:        id,
		Name:      name,
		ModelID:   modelID,
		Config:    cfg,
		State:     Created,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Run moves a freshly created session into Running.
func (s *Session) Run(at uint64) error {
	return s.transition(Running, at, "")
}

func (s *Session) Pause(at uint64) error {
	if s.State != Running {
		return ErrInvalidTransition
	}

	return s.transition(Paused, at, "")
}

func (s *Session) Resume(at uint64) error {
	if s.State != Paused {
		return ErrInvalidTransition
	}

	return s.transition(Running, at, "")
}

func (s *Session) Stop(at uint64) error {
	if s.State != Running && s.State != Paused {
		return ErrInvalidTransition
	}

	return s.transition(Stopped, at, "")
}

// Fail is callable from any non-terminal state.
func (s *Session) Fail(at uint64, reason string) error {
	if s.State.Terminal() {
		return ErrInvalidTransition
	}
	s.FailureReason = reason

	return s.transition(Failed, at, reason)
}

// AdvanceEpoch appends an epoch metric and completes the session once the
// configured number of epochs has been reached.
func (s *Session) AdvanceEpoch(loss, accuracy float64, at uint64) error {
	if s.State != Running {
		return ErrInvalidTransition
	}

	s.CurrentEpoch++
	s.MetricsHistory = append(s.MetricsHistory, EpochMetric{
		Epoch:    s.CurrentEpoch,
		Loss:     loss,
		Accuracy: accuracy,
	})
	s.UpdatedAt = at

	if s.CurrentEpoch == s.Config.Epochs {
		return s.transition(Completed, at, "")
	}

	return nil
}

func (s *Session) transition(to State, at uint64, reason string) error {
	if !legal(s.State, to) {
		return ErrInvalidTransition
	}

	s.Transitions = append(s.Transitions, Transition{
		From:   s.State,
		To:     to,
		At:     at,
		Reason: reason,
	})
	s.State = to
	s.UpdatedAt = at

	return nil
}

func legal(from, to State) bool {
	if from.Terminal() {
		return false
	}

	switch to {
	case Running:
		return from == Created || from == Paused
	case Paused:
		return from == Running
	case Stopped:
		return from == Running || from == Paused
	case Completed:
		return from == Running
	case Failed:
		return true
	default:
		return false
	}
}
