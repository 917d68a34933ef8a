// Package saturation finds runs of samples pinned at a channel's extreme values,
// the signature of an amplifier or converter driven into its rails.
package saturation

import (
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/neurite/internal/types"
)

// minRun is the shortest run counted as saturation. A single extreme sample is just the peak.
const minRun = 2

// Detect counts runs of at least two consecutive samples equal to the channel maximum or minimum.
// Constant and empty signals have no extremes to saturate against and report nothing.
func Detect(signal []float64) *types.SaturationResult {
	result := &types.SaturationResult{Samples: uint64(len(signal))}

	if len(signal) == 0 {
		return result
	}

	high, low := floats.Max(signal), floats.Min(signal)
	if high == low {
		return result
	}

	var (
		consecutive uint64
		rail        float64
	)

	flush := func() {
		if consecutive >= minRun {
			result.Events++
			result.SaturatedSamples += consecutive
			result.LongestRun = max(result.LongestRun, consecutive)
		}

		consecutive = 0
	}

	for _, sample := range signal {
		if sample != high && sample != low {
			flush()

			continue
		}

		if consecutive > 0 && sample != rail {
			flush()
		}

		rail = sample
		consecutive++
	}

	// Trailing run.
	flush()

	return result
}
