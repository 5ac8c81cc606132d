package fedavg

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoGradients = errors.New("no gradients provided for aggregation")
	ErrShape       = errors.New("gradient weight vectors have mismatched lengths")
)

// Gradient is the decoded form of a contributed gradient blob.
type Gradient struct {
	W          []float64 `json:"w"`
	B          float64   `json:"b"`
	NumSamples int64     `json:"num_samples"`
}

// Weights is the aggregation result, stored back as the new weights blob.
type Weights struct {
	W            []float64 `json:"w"`
	B            float64   `json:"b"`
	TotalSamples int64     `json:"total_samples"`
	NumGradients int       `json:"num_gradients"`
	Algorithm    string    `json:"algorithm"`
}

// Average performs sample-count-weighted federated averaging over raw
// gradient blobs. Blobs that fail to decode are rejected rather than skipped,
// since a bad blob reaching aggregation means admission let garbage through.
func Average(blobs [][]byte) ([]byte, error) {
	if len(blobs) == 0 {
		return nil, ErrNoGradients
	}

	grads := make([]Gradient, 0, len(blobs))
	for i, blob := range blobs {
		var g Gradient
		if err := json.Unmarshal(blob, &g); err != nil {
			return nil, fmt.Errorf("failed to decode gradient %d: %w", i, err)
		}
		if g.NumSamples <= 0 {
			g.NumSamples = 1
		}
		grads = append(grads, g)
	}

	dim := len(grads[0].W)
	for _, g := range grads {
		if len(g.W) != dim {
			return nil, ErrShape
		}
	}

	out := Weights{
		W:            make([]float64, dim),
		NumGradients: len(grads),
		Algorithm:    "FedAvg",
	}

	var totalSamples int64
	for _, g := range grads {
		weight := float64(g.NumSamples)
		totalSamples += g.NumSamples
		for i, v := range g.W {
			out.W[i] += v * weight
		}
		out.B += g.B * weight
	}

	norm := float64(totalSamples)
	for i := range out.W {
		out.W[i] /= norm
	}
	out.B /= norm
	out.TotalSamples = totalSamples

	return json.Marshal(out)
}
