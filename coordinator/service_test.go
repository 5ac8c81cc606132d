package coordinator_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/ledger"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/pkg/contentstore"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
	"github.com/modelfold/modelfold/pkg/fedavg"
	"github.com/modelfold/modelfold/pkg/mqtt"
	"github.com/modelfold/modelfold/pkg/storage"
	"github.com/modelfold/modelfold/session"
)

const (
	testOwner = "owner-wallet"
	testAdmin = "admin-wallet"
)

type mockPubSub struct{}

func (m *mockPubSub) Publish(ctx context.Context, topic string, payload any) error {
	return nil
}

func (m *mockPubSub) Subscribe(ctx context.Context, topic string, handler mqtt.Handler) error {
	return nil
}

func (m *mockPubSub) Unsubscribe(ctx context.Context, topic string) error {
	return nil
}

func (m *mockPubSub) Disconnect(ctx context.Context) error {
	return nil
}

type testEnv struct {
	svc      coordinator.Service
	blobs    contentstore.Store
	registry *contributor.Registry
}

func setupTestService(t *testing.T) testEnv {
	t.Helper()

	registry := contributor.NewRegistry()
	blobs := contentstore.NewMemoryStore()
	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(),
		registry,
		blobs,
		&mockPubSub{},
		testAdmin,
		slog.Default(),
	)

	return testEnv{svc: svc, blobs: blobs, registry: registry}
}

func createModel(t *testing.T, env testEnv) model.Model {
	t.Helper()

	ref, err := env.blobs.Put(context.Background(), []byte("initial weights"))
	require.NoError(t, err)

	m, err := env.svc.CreateModel(context.Background(), model.Model{Owner: testOwner}, ref)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.NotEmpty(t, m.Name)
	require.Equal(t, uint64(1), m.LatestVersion)

	return m
}

func putGradient(t *testing.T, env testEnv, g fedavg.Gradient) string {
	t.Helper()

	data, err := json.Marshal(g)
	require.NoError(t, err)
	ref, err := env.blobs.Put(context.Background(), data)
	require.NoError(t, err)

	return ref
}

func validConfig() session.Config {
	return session.Config{
		Epochs:       2,
		BatchSize:    16,
		LearningRate: 0.05,
		Optimizer:    session.OptimizerAdam,
	}
}

func TestCreateModelValidation(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)

	_, err := env.svc.CreateModel(context.Background(), model.Model{}, "ref")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)

	_, err = env.svc.CreateModel(context.Background(), model.Model{Owner: testOwner}, "")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
}

func TestSubmitGradientRequiresStoredBlob(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	m := createModel(t, env)

	_, _, err := env.svc.SubmitGradient(context.Background(), gradient.Submission{
		Contributor:  "alice",
		ModelID:      m.ID,
		ModelVersion: 1,
		GradientRef:  "not-stored",
	})
	assert.ErrorIs(t, err, contentstore.ErrNotFound)
}

func TestSubmitFinalizeScenario(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	refA := putGradient(t, env, fedavg.Gradient{W: []float64{1}, NumSamples: 1})
	refB := putGradient(t, env, fedavg.Gradient{W: []float64{2}, NumSamples: 1})

	_, status, err := env.svc.SubmitGradient(ctx, gradient.Submission{
		Contributor: "alice", ModelID: m.ID, ModelVersion: 1, GradientRef: refA,
	})
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	_, status, err = env.svc.SubmitGradient(ctx, gradient.Submission{
		Contributor: "alice", ModelID: m.ID, ModelVersion: 1, GradientRef: refA,
	})
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusDuplicate, status)

	_, status, err = env.svc.SubmitGradient(ctx, gradient.Submission{
		Contributor: "bob", ModelID: m.ID, ModelVersion: 1, GradientRef: refB,
	})
	require.NoError(t, err)
	assert.Equal(t, gradient.StatusAccepted, status)

	v, err := env.svc.GetModelVersion(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.GradientCount)

	newRef, err := env.blobs.Put(ctx, []byte("aggregated weights"))
	require.NoError(t, err)

	v, err = env.svc.FinalizeModelVersion(ctx, m.ID, 1, newRef, testOwner)
	require.NoError(t, err)
	assert.Equal(t, newRef, v.WeightsRef)
	assert.True(t, v.Finalized)

	page, err := env.svc.ListPendingGradients(ctx, m.ID, 1, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	for _, identity := range []string{"alice", "bob"} {
		c, err := env.svc.GetContributor(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), c.Contributions, identity)
	}

	// Submitting against the finalized version is rejected.
	_, _, err = env.svc.SubmitGradient(ctx, gradient.Submission{
		Contributor: "carol", ModelID: m.ID, ModelVersion: 1, GradientRef: refA,
	})
	assert.ErrorIs(t, err, ledger.ErrStaleVersion)
}

func TestFinalizeNonOwner(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	_, err := env.svc.FinalizeModelVersion(ctx, m.ID, 1, "whatever", "mallory")
	assert.ErrorIs(t, err, pkgerrors.ErrNotAuthorized)

	v, err := env.svc.GetModelVersion(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.False(t, v.Finalized)
}

func TestFinalizeTwice(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	_, err := env.svc.FinalizeModelVersion(ctx, m.ID, 1, "w2", testOwner)
	require.NoError(t, err)

	_, err = env.svc.FinalizeModelVersion(ctx, m.ID, 1, "w3", testOwner)
	assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized)
}

func TestAggregateModelVersion(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	_, err := env.svc.AggregateModelVersion(ctx, m.ID, 1, testOwner)
	assert.ErrorIs(t, err, fedavg.ErrNoGradients)

	refA := putGradient(t, env, fedavg.Gradient{W: []float64{1}, B: 1, NumSamples: 1})
	refB := putGradient(t, env, fedavg.Gradient{W: []float64{3}, B: 3, NumSamples: 1})

	for contributorID, ref := range map[string]string{"alice": refA, "bob": refB} {
		_, _, err := env.svc.SubmitGradient(ctx, gradient.Submission{
			Contributor: contributorID, ModelID: m.ID, ModelVersion: 1, GradientRef: ref,
		})
		require.NoError(t, err)
	}

	v, err := env.svc.AggregateModelVersion(ctx, m.ID, 1, testOwner)
	require.NoError(t, err)
	assert.True(t, v.Finalized)

	data, err := env.blobs.Get(ctx, v.WeightsRef)
	require.NoError(t, err)

	var w fedavg.Weights
	require.NoError(t, json.Unmarshal(data, &w))
	assert.InDelta(t, 2.0, w.W[0], 1e-9)
	assert.Equal(t, 2, w.NumGradients)
}

func TestAdvanceAfterFinalize(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	_, err := env.svc.AdvanceModelVersion(ctx, m.ID, testOwner)
	assert.ErrorIs(t, err, ledger.ErrVersionActive)

	_, err = env.svc.FinalizeModelVersion(ctx, m.ID, 1, "w2", testOwner)
	require.NoError(t, err)

	next, err := env.svc.AdvanceModelVersion(ctx, m.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Version)

	latest, err := env.svc.LatestModelVersion(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.Version)
}

func TestStartSessionInvalidConfig(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	m := createModel(t, env)

	cfg := validConfig()
	cfg.Epochs = 0
	_, err := env.svc.StartSession(context.Background(), session.Session{ModelID: m.ID, Config: cfg})
	assert.ErrorIs(t, err, session.ErrInvalidConfig)

	page, err := env.svc.ListSessions(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestStartSessionConflict(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	first, err := env.svc.StartSession(ctx, session.Session{ModelID: m.ID, Config: validConfig()})
	require.NoError(t, err)
	assert.Equal(t, session.Running, first.State)

	_, err = env.svc.StartSession(ctx, session.Session{ModelID: m.ID, Config: validConfig()})
	assert.ErrorIs(t, err, session.ErrSessionConflict)

	// A stopped session frees the lineage for the next one.
	_, err = env.svc.StopSession(ctx, first.ID)
	require.NoError(t, err)

	_, err = env.svc.StartSession(ctx, session.Session{ModelID: m.ID, Config: validConfig()})
	require.NoError(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	s, err := env.svc.StartSession(ctx, session.Session{ModelID: m.ID, Config: validConfig()})
	require.NoError(t, err)

	s, err = env.svc.PauseSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Paused, s.State)

	_, err = env.svc.AdvanceEpoch(ctx, s.ID, 0.4, 0.8)
	assert.ErrorIs(t, err, session.ErrInvalidTransition)

	s, err = env.svc.ResumeSession(ctx, s.ID)
	require.NoError(t, err)

	s, err = env.svc.AdvanceEpoch(ctx, s.ID, 0.4, 0.8)
	require.NoError(t, err)
	assert.Equal(t, session.Running, s.State)

	s, err = env.svc.AdvanceEpoch(ctx, s.ID, 0.3, 0.85)
	require.NoError(t, err)
	assert.Equal(t, session.Completed, s.State)
	assert.Len(t, s.MetricsHistory, 2)

	got, err := env.svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Completed, got.State)
}

func TestFailSession(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()
	m := createModel(t, env)

	s, err := env.svc.StartSession(ctx, session.Session{ModelID: m.ID, Config: validConfig()})
	require.NoError(t, err)

	s, err = env.svc.FailSession(ctx, s.ID, "worker crashed")
	require.NoError(t, err)
	assert.Equal(t, session.Failed, s.State)
	assert.Equal(t, "worker crashed", s.FailureReason)
}

func TestAwardReputationAuthorization(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()

	_, err := env.svc.RegisterContributor(ctx, "alice")
	require.NoError(t, err)

	_, err = env.svc.AwardReputation(ctx, "mallory", "alice", 50)
	assert.ErrorIs(t, err, pkgerrors.ErrNotAuthorized)

	c, err := env.svc.AwardReputation(ctx, testAdmin, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), c.Reputation)
}

func TestLeaderboardPagination(t *testing.T) {
	t.Parallel()
	env := setupTestService(t)
	ctx := context.Background()

	for _, identity := range []string{"a", "b", "c"} {
		_, err := env.svc.RegisterContributor(ctx, identity)
		require.NoError(t, err)
	}
	_, err := env.svc.AwardReputation(ctx, testAdmin, "b", 10)
	require.NoError(t, err)

	page, err := env.svc.Leaderboard(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Contributors, 2)
	assert.Equal(t, "b", page.Contributors[0].Identity)
	assert.Equal(t, "a", page.Contributors[1].Identity)
}
