package session_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/session"
)

func validConfig() session.Config {
	return session.Config{
		Epochs:          3,
		BatchSize:       32,
		LearningRate:    0.01,
		Optimizer:       session.OptimizerSGD,
		ValidationSplit: 0.2,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		mutate func(*session.Config)
		ok     bool
	}{
		{
			desc:   "valid",
			mutate: func(*session.Config) {},
			ok:     true,
		},
		{
			desc:   "zero epochs",
			mutate: func(c *session.Config) { c.Epochs = 0 },
		},
		{
			desc:   "zero batch size",
			mutate: func(c *session.Config) { c.BatchSize = 0 },
		},
		{
			desc:   "non-positive learning rate",
			mutate: func(c *session.Config) { c.LearningRate = 0 },
		},
		{
			desc:   "unknown optimizer",
			mutate: func(c *session.Config) { c.Optimizer = "lion" },
		},
		{
			desc:   "validation split too large",
			mutate: func(c *session.Config) { c.ValidationSplit = 1 },
		},
		{
			desc:   "negative validation split",
			mutate: func(c *session.Config) { c.ValidationSplit = -0.1 },
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, session.ErrInvalidConfig)
		})
	}
}

func newRunning(t *testing.T) session.Session {
	t.Helper()
	s := session.New(uuid.NewString(), "test", uuid.NewString(), validConfig(), 1)
	require.NoError(t, s.Run(2))

	return s
}

func TestPauseResumeStop(t *testing.T) {
	t.Parallel()

	s := newRunning(t)
	require.NoError(t, s.Pause(3))
	assert.Equal(t, session.Paused, s.State)

	require.NoError(t, s.Resume(4))
	assert.Equal(t, session.Running, s.State)

	require.NoError(t, s.Stop(5))
	assert.Equal(t, session.Stopped, s.State)

	assert.ErrorIs(t, s.Resume(6), session.ErrInvalidTransition)
}

func TestPauseIllegalStates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		prepare func(t *testing.T) session.Session
	}{
		{
			desc: "created",
			prepare: func(t *testing.T) session.Session {
				return session.New(uuid.NewString(), "s", uuid.NewString(), validConfig(), 1)
			},
		},
		{
			desc: "completed",
			prepare: func(t *testing.T) session.Session {
				s := newRunning(t)
				for range validConfig().Epochs {
					require.NoError(t, s.AdvanceEpoch(0.5, 0.8, 3))
				}
				require.Equal(t, session.Completed, s.State)

				return s
			},
		},
		{
			desc: "stopped",
			prepare: func(t *testing.T) session.Session {
				s := newRunning(t)
				require.NoError(t, s.Stop(3))

				return s
			},
		},
		{
			desc: "failed",
			prepare: func(t *testing.T) session.Session {
				s := newRunning(t)
				require.NoError(t, s.Fail(3, "oom"))

				return s
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			s := tc.prepare(t)
			assert.ErrorIs(t, s.Pause(9), session.ErrInvalidTransition)
		})
	}
}

func TestAdvanceEpochCompletes(t *testing.T) {
	t.Parallel()

	s := newRunning(t)
	for i := range uint64(3) {
		require.NoError(t, s.AdvanceEpoch(1.0/float64(i+1), 0.7, 3+i))
	}

	assert.Equal(t, session.Completed, s.State)
	assert.Equal(t, uint64(3), s.CurrentEpoch)
	require.Len(t, s.MetricsHistory, 3)
	assert.Equal(t, uint64(1), s.MetricsHistory[0].Epoch)
	assert.Equal(t, uint64(3), s.MetricsHistory[2].Epoch)

	assert.ErrorIs(t, s.AdvanceEpoch(0.1, 0.9, 9), session.ErrInvalidTransition)
}

func TestFailFromAnyNonTerminal(t *testing.T) {
	t.Parallel()

	s := session.New(uuid.NewString(), "s", uuid.NewString(), validConfig(), 1)
	require.NoError(t, s.Fail(2, "validator crashed"))
	assert.Equal(t, session.Failed, s.State)
	assert.Equal(t, "validator crashed", s.FailureReason)

	assert.ErrorIs(t, s.Fail(3, "again"), session.ErrInvalidTransition)
}

func TestTransitionLog(t *testing.T) {
	t.Parallel()

	s := newRunning(t)
	require.NoError(t, s.Pause(3))
	require.NoError(t, s.Resume(4))

	require.Len(t, s.Transitions, 3)
	assert.Equal(t, session.Created, s.Transitions[0].From)
	assert.Equal(t, session.Running, s.Transitions[0].To)
	assert.Equal(t, session.Paused, s.Transitions[1].To)
	assert.Equal(t, session.Running, s.Transitions[2].To)
	assert.Equal(t, uint64(4), s.Transitions[2].At)
}
