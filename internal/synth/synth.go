// Package synth generates deterministic synthetic extracellular recordings:
// Gaussian background noise with spike waveforms added at known positions.
package synth

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

// Options configures a synthetic recording.
type Options struct {
	Channels   int
	Samples    int     // samples per channel
	SampleRate float64 // Hz, informational
	Seed       uint64

	NoiseStd  float64   // standard deviation of the background noise (default 1)
	Amplitude float64   // spike amplitude, multiplies Waveform (default 10)
	Waveform  []float64 // spike shape, index 0 lands on the spike position (default: single sample)

	// Positions places spikes at the same indices on every spiking channel.
	// When empty, Count spikes are spread over each channel at random positions.
	Positions []int
	Count     int

	Flat []int // channels held at a constant zero, with neither noise nor spikes
}

// DefaultWaveform is a positive-going extracellular spike shape with an after-hyperpolarization.
//
//nolint:gochecknoglobals // shape table, effectively const
var DefaultWaveform = []float64{0.25, 0.7, 1.0, 0.55, -0.35, -0.3, -0.15, -0.05}

// Result is a generated recording together with the positions where spikes were inserted.
type Result struct {
	Recording *types.Recording
	Spikes    [][]int // per channel, ascending
}

// Generate builds a recording according to opts.
func Generate(opts Options) (*Result, error) {
	if opts.Channels <= 0 || opts.Samples <= 0 {
		return nil, fmt.Errorf("%w: need at least one channel and one sample, got %dx%d",
			shared.ErrData, opts.Samples, opts.Channels)
	}

	if opts.NoiseStd == 0 {
		opts.NoiseStd = 1
	}

	if opts.Amplitude == 0 {
		opts.Amplitude = 10
	}

	if len(opts.Waveform) == 0 {
		opts.Waveform = []float64{1}
	}

	if len(opts.Positions) == 0 && opts.Count > 0 && opts.Samples/opts.Count <= len(opts.Waveform) {
		return nil, fmt.Errorf("%w: %d spikes of width %d do not fit in %d samples",
			shared.ErrData, opts.Count, len(opts.Waveform), opts.Samples)
	}

	for _, pos := range opts.Positions {
		if pos < 0 || pos >= opts.Samples {
			return nil, fmt.Errorf("%w: spike position %d outside [0, %d)", shared.ErrData, pos, opts.Samples)
		}
	}

	samples := mat.NewDense(opts.Samples, opts.Channels, nil)
	result := &Result{
		Recording: &types.Recording{
			Samples:    samples,
			SampleRate: opts.SampleRate,
			Labels:     make([]string, opts.Channels),
		},
		Spikes: make([][]int, opts.Channels),
	}

	for ch := range opts.Channels {
		result.Recording.Labels[ch] = fmt.Sprintf("ch%02d", ch)
		result.Spikes[ch] = []int{}

		if slices.Contains(opts.Flat, ch) {
			continue
		}

		rng := rand.New(rand.NewPCG(opts.Seed, uint64(ch))) //nolint:gosec // reproducible fixtures, not crypto

		for i := range opts.Samples {
			samples.Set(i, ch, rng.NormFloat64()*opts.NoiseStd)
		}

		positions := opts.Positions
		if len(positions) == 0 {
			positions = spread(rng, opts.Samples, opts.Count, len(opts.Waveform))
		}

		for _, pos := range positions {
			for k, weight := range opts.Waveform {
				if pos+k >= opts.Samples {
					break
				}

				samples.Set(pos+k, ch, samples.At(pos+k, ch)+weight*opts.Amplitude)
			}
		}

		result.Spikes[ch] = slices.Sorted(slices.Values(positions))
	}

	return result, nil
}

// spread picks count positions, one per equal-size segment of the signal, so that waveforms never overlap.
func spread(rng *rand.Rand, samples, count, width int) []int {
	if count <= 0 {
		return nil
	}

	segment := samples / count
	if segment <= width {
		return nil
	}

	positions := make([]int, 0, count)
	for i := range count {
		positions = append(positions, i*segment+rng.IntN(segment-width))
	}

	return positions
}
