package fedavg_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/pkg/fedavg"
)

func encode(t *testing.T, g fedavg.Gradient) []byte {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)

	return data
}

func TestAverageWeighted(t *testing.T) {
	t.Parallel()

	blobs := [][]byte{
		encode(t, fedavg.Gradient{W: []float64{1, 2}, B: 1, NumSamples: 1}),
		encode(t, fedavg.Gradient{W: []float64{4, 5}, B: 4, NumSamples: 3}),
	}

	out, err := fedavg.Average(blobs)
	require.NoError(t, err)

	var w fedavg.Weights
	require.NoError(t, json.Unmarshal(out, &w))

	// (1*1 + 4*3) / 4 = 3.25, (2*1 + 5*3) / 4 = 4.25
	assert.InDelta(t, 3.25, w.W[0], 1e-9)
	assert.InDelta(t, 4.25, w.W[1], 1e-9)
	assert.InDelta(t, 3.25, w.B, 1e-9)
	assert.Equal(t, int64(4), w.TotalSamples)
	assert.Equal(t, 2, w.NumGradients)
	assert.Equal(t, "FedAvg", w.Algorithm)
}

func TestAverageDefaultsSampleCount(t *testing.T) {
	t.Parallel()

	blobs := [][]byte{
		encode(t, fedavg.Gradient{W: []float64{2}, B: 2}),
		encode(t, fedavg.Gradient{W: []float64{4}, B: 4}),
	}

	out, err := fedavg.Average(blobs)
	require.NoError(t, err)

	var w fedavg.Weights
	require.NoError(t, json.Unmarshal(out, &w))
	assert.InDelta(t, 3.0, w.W[0], 1e-9)
}

func TestAverageErrors(t *testing.T) {
	t.Parallel()

	_, err := fedavg.Average(nil)
	assert.ErrorIs(t, err, fedavg.ErrNoGradients)

	_, err = fedavg.Average([][]byte{[]byte("not json")})
	assert.Error(t, err)

	_, err = fedavg.Average([][]byte{
		encode(t, fedavg.Gradient{W: []float64{1, 2}}),
		encode(t, fedavg.Gradient{W: []float64{1}}),
	})
	assert.ErrorIs(t, err, fedavg.ErrShape)
}
