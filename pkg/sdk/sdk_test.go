package sdk_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	coordapi "github.com/modelfold/modelfold/coordinator/api"
	"github.com/modelfold/modelfold/pkg/contentstore"
	"github.com/modelfold/modelfold/pkg/mqtt"
	"github.com/modelfold/modelfold/pkg/sdk"
	"github.com/modelfold/modelfold/pkg/storage"
)

const testAdmin = "0xADMIN"

type nopPubSub struct{}

func (nopPubSub) Publish(context.Context, string, any) error            { return nil }
func (nopPubSub) Subscribe(context.Context, string, mqtt.Handler) error { return nil }
func (nopPubSub) Unsubscribe(context.Context, string) error             { return nil }
func (nopPubSub) Disconnect(context.Context) error                      { return nil }

func setupServer(t *testing.T) (sdk.SDK, contentstore.Store) {
	t.Helper()

	blobs := contentstore.NewMemoryStore()
	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(),
		contributor.NewRegistry(),
		blobs,
		nopPubSub{},
		testAdmin,
		slog.Default(),
	)

	srv := httptest.NewServer(coordapi.MakeHandler(svc, slog.Default(), "test-instance"))
	t.Cleanup(srv.Close)

	return sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL}), blobs
}

func TestModelRoundTrip(t *testing.T) {
	t.Parallel()
	s, blobs := setupServer(t)

	ref, err := blobs.Put(context.Background(), []byte("weights"))
	require.NoError(t, err)

	m, err := s.CreateModel(sdk.Model{Name: "mnist", Owner: "0xOWNER"}, ref)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	assert.Equal(t, uint64(1), m.LatestVersion)

	got, err := s.GetModel(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	v, err := s.LatestModelVersion(m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Version)
	assert.Equal(t, ref, v.WeightsRef)

	page, err := s.ListModels(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestGradientWorkflow(t *testing.T) {
	t.Parallel()
	s, blobs := setupServer(t)
	ctx := context.Background()

	weightsRef, err := blobs.Put(ctx, []byte("w1"))
	require.NoError(t, err)
	gradRef, err := blobs.Put(ctx, []byte(`{"w":[1],"num_samples":4}`))
	require.NoError(t, err)

	m, err := s.CreateModel(sdk.Model{Owner: "0xOWNER"}, weightsRef)
	require.NoError(t, err)

	g, err := s.SubmitGradient(sdk.Gradient{
		Contributor:  "0xALICE",
		ModelID:      m.ID,
		ModelVersion: 1,
		GradientRef:  gradRef,
	})
	require.NoError(t, err)
	assert.Equal(t, "Accepted", g.Status)

	g, err = s.SubmitGradient(sdk.Gradient{
		Contributor:  "0xALICE",
		ModelID:      m.ID,
		ModelVersion: 1,
		GradientRef:  gradRef,
	})
	require.NoError(t, err)
	assert.Equal(t, "Duplicate", g.Status)

	pending, err := s.ListPendingGradients(m.ID, 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pending.Total)

	v, err := s.AggregateModelVersion(m.ID, 1, "0xOWNER")
	require.NoError(t, err)
	assert.True(t, v.Finalized)

	next, err := s.AdvanceModelVersion(m.ID, "0xOWNER")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Version)

	c, err := s.GetContributor("0xALICE")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Contributions)
}

func TestFinalizeErrorsSurface(t *testing.T) {
	t.Parallel()
	s, blobs := setupServer(t)

	ref, err := blobs.Put(context.Background(), []byte("w1"))
	require.NoError(t, err)

	m, err := s.CreateModel(sdk.Model{Owner: "0xOWNER"}, ref)
	require.NoError(t, err)

	_, err = s.FinalizeModelVersion(m.ID, 1, "w2", "0xTHIEF")
	assert.ErrorContains(t, err, "403")

	_, err = s.FinalizeModelVersion(m.ID, 1, "w2", "0xOWNER")
	require.NoError(t, err)

	_, err = s.FinalizeModelVersion(m.ID, 1, "w3", "0xOWNER")
	assert.ErrorContains(t, err, "409")
}

func TestSessionWorkflow(t *testing.T) {
	t.Parallel()
	s, blobs := setupServer(t)

	ref, err := blobs.Put(context.Background(), []byte("w1"))
	require.NoError(t, err)

	m, err := s.CreateModel(sdk.Model{Owner: "0xOWNER"}, ref)
	require.NoError(t, err)

	sess, err := s.StartSession(sdk.Session{
		ModelID: m.ID,
		Config: sdk.TrainingConfig{
			Epochs:       2,
			BatchSize:    32,
			LearningRate: 0.01,
			Optimizer:    "adam",
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	_, err = s.StartSession(sdk.Session{
		ModelID: m.ID,
		Config: sdk.TrainingConfig{
			Epochs:       2,
			BatchSize:    32,
			LearningRate: 0.01,
			Optimizer:    "adam",
		},
	})
	assert.ErrorContains(t, err, "409")

	sess, err = s.PauseSession(sess.ID)
	require.NoError(t, err)

	sess, err = s.ResumeSession(sess.ID)
	require.NoError(t, err)

	sess, err = s.AdvanceEpoch(sess.ID, 0.5, 0.8)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.CurrentEpoch)

	sess, err = s.AdvanceEpoch(sess.ID, 0.4, 0.85)
	require.NoError(t, err)
	assert.Len(t, sess.MetricsHistory, 2)

	page, err := s.ListSessions(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestContributorWorkflow(t *testing.T) {
	t.Parallel()
	s, _ := setupServer(t)

	c, err := s.RegisterContributor("0xALICE")
	require.NoError(t, err)
	assert.Equal(t, "0xALICE", c.Identity)

	_, err = s.AwardReputation("0xNOBODY", "0xALICE", 10)
	assert.ErrorContains(t, err, "403")

	c, err = s.AwardReputation(testAdmin, "0xALICE", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), c.Reputation)

	board, err := s.Leaderboard(0, 10)
	require.NoError(t, err)
	require.Len(t, board.Contributors, 1)
	assert.Equal(t, "0xALICE", board.Contributors[0].Identity)
}
