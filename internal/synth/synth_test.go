package synth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/synth"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	result, err := synth.Generate(synth.Options{
		Channels:   3,
		Samples:    4000,
		SampleRate: 1000,
		Seed:       1,
		Waveform:   synth.DefaultWaveform,
		Count:      8,
		Flat:       []int{1},
	})
	require.NoError(t, err)

	rec := result.Recording
	assert.Equal(t, 3, rec.Channels())
	assert.Equal(t, 4000, rec.Length())
	assert.Equal(t, []string{"ch00", "ch01", "ch02"}, rec.Labels)

	assert.Len(t, result.Spikes[0], 8)
	assert.Empty(t, result.Spikes[1])
	assert.Len(t, result.Spikes[2], 8)
	assert.IsIncreasing(t, result.Spikes[0])

	for i := range rec.Length() {
		assert.Zero(t, rec.Samples.At(i, 1))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	opts := synth.Options{Channels: 2, Samples: 1000, Seed: 5, Count: 4}

	first, err := synth.Generate(opts)
	require.NoError(t, err)

	second, err := synth.Generate(opts)
	require.NoError(t, err)

	assert.Equal(t, first.Spikes, second.Spikes)
	assert.Equal(t, first.Recording.Samples.RawMatrix().Data, second.Recording.Samples.RawMatrix().Data)
}

func TestGeneratePositions(t *testing.T) {
	t.Parallel()

	result, err := synth.Generate(synth.Options{
		Channels:  1,
		Samples:   100,
		NoiseStd:  1e-9,
		Positions: []int{60, 20},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{20, 60}, result.Spikes[0])
	assert.InDelta(t, 10.0, result.Recording.Samples.At(20, 0), 1e-6)
	assert.InDelta(t, 10.0, result.Recording.Samples.At(60, 0), 1e-6)
	assert.InDelta(t, 0.0, result.Recording.Samples.At(40, 0), 1e-6)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts synth.Options
	}{
		{"no channels", synth.Options{Samples: 10}},
		{"no samples", synth.Options{Channels: 1}},
		{"crowded", synth.Options{Channels: 1, Samples: 10, Count: 5, Waveform: synth.DefaultWaveform}},
		{"position out of range", synth.Options{Channels: 1, Samples: 10, Positions: []int{10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := synth.Generate(tt.opts)
			require.ErrorIs(t, err, shared.ErrData)
		})
	}
}
