package raw_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"testing/iotest"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/integration/raw"
	"github.com/farcloser/neurite/internal/types"
)

func TestDecodeS16(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for _, v := range []int16{1, -1, 2, -2, 3, -3} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	rec, err := raw.Decode(&buf, types.SampleFormat{
		SampleRate: 30000,
		Encoding:   types.EncodingS16,
		Channels:   2,
		Gain:       0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, rec.Length())
	assert.Equal(t, 2, rec.Channels())
	assert.InDelta(t, 30000.0, rec.SampleRate, 0)
	assert.Equal(t, []float64{0.5, 1, 1.5}, mat.Col(nil, 0, rec.Samples))
	assert.Equal(t, []float64{-0.5, -1, -1.5}, mat.Col(nil, 1, rec.Samples))
}

func TestDecodeS24(t *testing.T) {
	t.Parallel()

	// 1, -1, 0x7FFFFF, -0x800000
	data := []byte{
		0x01, 0x00, 0x00,
		0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0x7F,
		0x00, 0x00, 0x80,
	}

	rec, err := raw.Decode(bytes.NewReader(data), types.SampleFormat{Encoding: types.EncodingS24, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 8388607, -8388608}, mat.Col(nil, 0, rec.Samples))
}

func TestDecodeFloats(t *testing.T) {
	t.Parallel()

	var f32 bytes.Buffer
	for _, v := range []float32{0.25, -4.5} {
		require.NoError(t, binary.Write(&f32, binary.LittleEndian, v))
	}

	// Gain only scales integer encodings.
	rec, err := raw.Decode(&f32, types.SampleFormat{Encoding: types.EncodingF32, Channels: 1, Gain: 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -4.5}, mat.Col(nil, 0, rec.Samples))

	var f64 bytes.Buffer
	for _, v := range []float64{1e-6, 2e-6, 3e-6, 4e-6} {
		require.NoError(t, binary.Write(&f64, binary.LittleEndian, v))
	}

	rec, err = raw.Decode(&f64, types.SampleFormat{Encoding: types.EncodingF64, Channels: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1e-6, 3e-6}, mat.Col(nil, 0, rec.Samples))
	assert.Equal(t, []float64{2e-6, 4e-6}, mat.Col(nil, 1, rec.Samples))
}

func TestDecodeS32LargeStream(t *testing.T) {
	t.Parallel()

	const frames = 10000

	var buf bytes.Buffer
	for i := range frames {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, []int32{int32(i), int32(-i)}))
	}

	// One byte at a time exercises short reads.
	rec, err := raw.Decode(iotest.OneByteReader(&buf), types.SampleFormat{Encoding: types.EncodingS32, Channels: 2})
	require.NoError(t, err)
	require.Equal(t, frames, rec.Length())
	assert.InDelta(t, float64(frames-1), rec.Samples.At(frames-1, 0), 0)
	assert.InDelta(t, float64(-(frames - 1)), rec.Samples.At(frames-1, 1), 0)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := raw.Decode(bytes.NewReader(nil), types.SampleFormat{Encoding: types.EncodingS16, Channels: 1})
	require.ErrorIs(t, err, shared.ErrData)

	_, err = raw.Decode(bytes.NewReader([]byte{1, 2, 3}), types.SampleFormat{Encoding: types.EncodingS16, Channels: 1})
	require.ErrorIs(t, err, shared.ErrData)

	_, err = raw.Decode(bytes.NewReader([]byte{1, 2}), types.SampleFormat{Encoding: "u8", Channels: 1})
	require.ErrorIs(t, err, shared.ErrData)

	_, err = raw.Decode(bytes.NewReader([]byte{1, 2}), types.SampleFormat{Encoding: types.EncodingS16})
	require.ErrorIs(t, err, shared.ErrData)

	nan := binary.LittleEndian.AppendUint64(nil, math.Float64bits(math.NaN()))
	_, err = raw.Decode(bytes.NewReader(nan), types.SampleFormat{Encoding: types.EncodingF64, Channels: 1})
	require.ErrorIs(t, err, shared.ErrData)

	_, err = raw.Decode(iotest.ErrReader(errors.New("device gone")),
		types.SampleFormat{Encoding: types.EncodingS16, Channels: 1})
	require.ErrorIs(t, err, fault.ErrReadFailure)
}
