// Package snr estimates the signal-to-noise ratio of detected spikes from the samples around them.
package snr

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/audit/window"
	"github.com/farcloser/neurite/internal/types"
)

// Estimate computes, for every spike index, (max - min) / std over the window of halfWidth samples
// around it, and the mean across spikes. A flat window contributes 0.
// Returns shared.ErrNoSpikes when indices is empty.
func Estimate(signal []float64, indices []int, halfWidth int) (*types.SNRResult, error) {
	if err := shared.CheckSpikes(signal, indices, halfWidth); err != nil {
		return nil, err
	}

	result := &types.SNRResult{
		Values: make([]float64, len(indices)),
	}

	for i, idx := range indices {
		_, segment := window.Segment(signal, idx, halfWidth)

		_, noise := stat.PopMeanStdDev(segment, nil)
		if noise == 0 {
			continue
		}

		result.Values[i] = (floats.Max(segment) - floats.Min(segment)) / noise
	}

	result.Average = stat.Mean(result.Values, nil)

	return result, nil
}
