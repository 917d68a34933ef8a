package peaktrough_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/peaktrough"
	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/synth"
)

func TestMeasure(t *testing.T) {
	t.Parallel()

	signal := []float64{0, 1, 6, -2, 0, 0, 0, 0, 3, -1}

	// [0, 4) -> 6 - (-2); [6, 10) -> 3 - (-1)
	result, err := peaktrough.Measure(signal, []int{2, 8}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 4}, result.Values)
	assert.InDelta(t, 6.0, result.Average, 1e-12)
}

func TestMeasureEdges(t *testing.T) {
	t.Parallel()

	signal := make([]float64, 200)
	signal[10] = 4
	signal[190] = -3

	result, err := peaktrough.Measure(signal, []int{0, 199}, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 3}, result.Values)
}

func TestMeasureErrors(t *testing.T) {
	t.Parallel()

	_, err := peaktrough.Measure([]float64{1, 2}, nil, 50)
	require.ErrorIs(t, err, shared.ErrNoSpikes)

	_, err = peaktrough.Measure([]float64{}, []int{0}, 50)
	require.ErrorIs(t, err, shared.ErrData)

	_, err = peaktrough.Measure([]float64{1, 2}, []int{-1}, 50)
	require.ErrorIs(t, err, shared.ErrData)
}

func TestMeasureOffsetAndScale(t *testing.T) {
	t.Parallel()

	generated, err := synth.Generate(synth.Options{
		Channels:  1,
		Samples:   1000,
		Seed:      11,
		Waveform:  synth.DefaultWaveform,
		Positions: []int{150, 520, 870},
	})
	require.NoError(t, err)

	signal := mat.Col(nil, 0, generated.Recording.Samples)
	indices := []int{151, 152, 521, 522, 871}

	base, err := peaktrough.Measure(signal, indices, 50)
	require.NoError(t, err)

	shifted := append([]float64(nil), signal...)
	floats.AddConst(12.25, shifted)

	offset, err := peaktrough.Measure(shifted, indices, 50)
	require.NoError(t, err)
	assert.InDeltaSlice(t, base.Values, offset.Values, 1e-9)

	scaled := append([]float64(nil), signal...)
	floats.Scale(2.5, scaled)

	scaledResult, err := peaktrough.Measure(scaled, indices, 50)
	require.NoError(t, err)
	assert.InDelta(t, 2.5*base.Average, scaledResult.Average, 1e-9)
}
