// Package peaktrough measures the peak-to-trough amplitude of detected spikes.
package peaktrough

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/audit/window"
	"github.com/farcloser/neurite/internal/types"
)

// Measure returns max - min over the window of halfWidth samples around every spike index,
// and the mean across spikes. Returns shared.ErrNoSpikes when indices is empty.
func Measure(signal []float64, indices []int, halfWidth int) (*types.PeakTroughResult, error) {
	if err := shared.CheckSpikes(signal, indices, halfWidth); err != nil {
		return nil, err
	}

	result := &types.PeakTroughResult{
		Values: make([]float64, len(indices)),
	}

	for i, idx := range indices {
		_, segment := window.Segment(signal, idx, halfWidth)
		result.Values[i] = floats.Max(segment) - floats.Min(segment)
	}

	result.Average = stat.Mean(result.Values, nil)

	return result, nil
}
