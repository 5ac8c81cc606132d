package contributor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/contributor"
)

func TestRegisterIdempotent(t *testing.T) {
	t.Parallel()
	r := contributor.NewRegistry()

	first := r.Register("alice", 1)
	again := r.Register("alice", 99)

	assert.Equal(t, first, again)
	assert.Equal(t, uint64(1), again.RegisteredAt)
}

func TestRecordContributionAutoRegisters(t *testing.T) {
	t.Parallel()
	r := contributor.NewRegistry()

	c := r.RecordContribution("bob", 10, 5)
	assert.Equal(t, uint64(1), c.Contributions)
	assert.Equal(t, uint64(10), c.Reputation)
	assert.Equal(t, uint64(5), c.RegisteredAt)
	assert.Equal(t, uint64(5), c.LastContributionAt)

	c = r.RecordContribution("bob", 10, 7)
	assert.Equal(t, uint64(2), c.Contributions)
	assert.Equal(t, uint64(20), c.Reputation)
	assert.Equal(t, uint64(5), c.RegisteredAt)
	assert.Equal(t, uint64(7), c.LastContributionAt)
}

func TestAwardReputation(t *testing.T) {
	t.Parallel()
	r := contributor.NewRegistry()

	_, err := r.AwardReputation("ghost", 5, 1)
	assert.ErrorIs(t, err, contributor.ErrUnknownContributor)

	r.Register("carol", 1)
	c, err := r.AwardReputation("carol", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), c.Reputation)
	assert.Zero(t, c.Contributions)
}

func TestLeaderboardOrdering(t *testing.T) {
	t.Parallel()
	r := contributor.NewRegistry()

	r.Register("late-tied", 3)
	r.Register("early-tied", 1)
	r.Register("top", 2)

	_, err := r.AwardReputation("top", 100, 4)
	require.NoError(t, err)
	_, err = r.AwardReputation("early-tied", 50, 5)
	require.NoError(t, err)
	_, err = r.AwardReputation("late-tied", 50, 6)
	require.NoError(t, err)

	board := r.Leaderboard()
	require.Len(t, board, 3)
	assert.Equal(t, "top", board[0].Identity)
	assert.Equal(t, "early-tied", board[1].Identity)
	assert.Equal(t, "late-tied", board[2].Identity)
}
