package neurite

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

var (
	// ErrData indicates an empty or malformed signal, or an option that cannot be applied to it.
	ErrData = shared.ErrData

	// ErrNoSpikes indicates a metric was requested against an empty spike index list.
	// Analyze recovers it into a Silent channel report.
	ErrNoSpikes = shared.ErrNoSpikes
)

type (
	// Recording is a multi-channel voltage recording, one column per channel.
	Recording = types.Recording

	// SpikeEvent is a run of threshold crossings merged into one event.
	SpikeEvent = types.SpikeEvent

	// LineNoiseResult contains mains interference measurements for a channel.
	LineNoiseResult = types.LineNoiseResult

	// SaturationResult contains the runs of samples pinned at a channel's extremes.
	SaturationResult = types.SaturationResult
)

// NewRecording builds a Recording from per-channel sample slices.
// All channels must be non-empty, of equal length, and finite.
func NewRecording(channels [][]float64, sampleRate float64, labels ...string) (*Recording, error) {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, fmt.Errorf("%w: empty recording", ErrData)
	}

	if len(labels) > 0 && len(labels) != len(channels) {
		return nil, fmt.Errorf("%w: %d labels for %d channels", ErrData, len(labels), len(channels))
	}

	length := len(channels[0])
	samples := mat.NewDense(length, len(channels), nil)

	for ch, signal := range channels {
		if len(signal) != length {
			return nil, fmt.Errorf("%w: channel %d has %d samples, expected %d", ErrData, ch, len(signal), length)
		}

		for i, value := range signal {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("%w: channel %d sample %d is not finite", ErrData, ch, i)
			}
		}

		samples.SetCol(ch, signal)
	}

	return &Recording{
		Samples:    samples,
		SampleRate: sampleRate,
		Labels:     labels,
	}, nil
}
