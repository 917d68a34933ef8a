package edf_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/integration/edf"
	"github.com/farcloser/neurite/internal/synth"
	"github.com/farcloser/neurite/internal/types"
)

func generate(t *testing.T, channels, rate, seconds int) *types.Recording {
	t.Helper()

	result, err := synth.Generate(synth.Options{
		Channels:   channels,
		Samples:    rate * seconds,
		SampleRate: float64(rate),
		Seed:       5,
		Waveform:   synth.DefaultWaveform,
		Count:      10 * seconds,
		Flat:       []int{channels - 1},
	})
	require.NoError(t, err)

	return result.Recording
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rec := generate(t, 3, 2000, 2)
	path := filepath.Join(t.TempDir(), "roundtrip.edf")

	require.NoError(t, edf.SaveFile(path, rec, edf.Meta{PatientID: "X", RecordingID: "probe 1"}))

	loaded, err := edf.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, rec.Channels(), loaded.Channels())
	assert.Equal(t, rec.Length(), loaded.Length())
	assert.InDelta(t, 2000.0, loaded.SampleRate, 0)
	assert.Equal(t, []string{"ch00", "ch01", "ch02"}, loaded.Labels)

	for ch := range rec.Channels() {
		original := mat.Col(nil, ch, rec.Samples)
		decoded := mat.Col(nil, ch, loaded.Samples)

		// One quantization step over the channel's header range, plus margin for the rounded bounds.
		step := (floats.Max(original) - floats.Min(original) + 2) / 65535

		for i := range original {
			require.InDelta(t, original[i], decoded[i], 2*step, "channel %d sample %d", ch, i)
		}
	}

	flat := mat.Col(nil, 2, loaded.Samples)
	assert.InDelta(t, floats.Max(flat), floats.Min(flat), 0)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	rec := generate(t, 2, 1000, 3)
	path := filepath.Join(t.TempDir(), "inspect.edf")
	require.NoError(t, edf.SaveFile(path, rec, edf.Meta{}))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	info, err := edf.Inspect(file)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Records)
	assert.InDelta(t, 1.0, info.RecordDuration, 0)
	assert.Equal(t, []int{1000, 1000}, info.SamplesPerRecord)
	assert.InDelta(t, 1000.0, info.SampleRate(1), 0)
	assert.InDelta(t, 0.0, info.SampleRate(2), 0)
}

func TestSaveRejects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Fractional rate.
	rec := generate(t, 1, 1000, 1)
	rec.SampleRate = 999.5
	err := edf.SaveFile(filepath.Join(dir, "rate.edf"), rec, edf.Meta{})
	require.ErrorIs(t, err, shared.ErrData)

	// Partial second.
	partial, err := synth.Generate(synth.Options{Channels: 1, Samples: 1500, SampleRate: 1000})
	require.NoError(t, err)
	err = edf.SaveFile(filepath.Join(dir, "partial.edf"), partial.Recording, edf.Meta{})
	require.ErrorIs(t, err, shared.ErrData)

	// Data record larger than the format allows.
	wide := generate(t, 4, 10000, 1)
	err = edf.SaveFile(filepath.Join(dir, "wide.edf"), wide, edf.Meta{})
	require.ErrorIs(t, err, shared.ErrData)

	// Empty.
	err = edf.SaveFile(filepath.Join(dir, "empty.edf"), &types.Recording{}, edf.Meta{})
	require.ErrorIs(t, err, shared.ErrData)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	_, err := edf.Load(bytes.NewReader([]byte("not an edf file")))
	require.Error(t, err)

	_, err = edf.LoadFile(filepath.Join(t.TempDir(), "missing.edf"))
	require.Error(t, err)
}

func TestInspectRejectsCorruptSignalCount(t *testing.T) {
	t.Parallel()

	rec := generate(t, 2, 1000, 1)
	path := filepath.Join(t.TempDir(), "corrupt.edf")
	require.NoError(t, edf.SaveFile(path, rec, edf.Meta{}))

	valid, err := os.ReadFile(path)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		headerBytes string
		signals     string
	}{
		{name: "count disagrees with header size", headerBytes: "768     ", signals: "9999"},
		{name: "header larger than file", headerBytes: "2560256 ", signals: "9999"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			corrupt := bytes.Clone(valid)
			copy(corrupt[184:192], tc.headerBytes)
			copy(corrupt[252:256], tc.signals)

			_, err := edf.Inspect(bytes.NewReader(corrupt))
			require.ErrorIs(t, err, shared.ErrData)
		})
	}
}
