// Package raw decodes interleaved little endian sample streams, as dumped by acquisition systems.
package raw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/farcloser/primordium/fault"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

const framesPerRead = 4096

// Decode reads the whole stream into a recording. Integer samples are multiplied by format.Gain.
// The stream must hold a whole number of frames.
func Decode(reader io.Reader, format types.SampleFormat) (*types.Recording, error) {
	bytesPerSample := format.Encoding.BytesPerSample()
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("%w: unknown encoding %q", shared.ErrData, format.Encoding)
	}

	if format.Channels == 0 {
		return nil, fmt.Errorf("%w: channel count must be positive", shared.ErrData)
	}

	gain := format.Gain
	if gain == 0 {
		gain = 1
	}

	numChannels := int(format.Channels) //nolint:gosec // channel count is small
	frameSize := bytesPerSample * numChannels
	buf := make([]byte, frameSize*framesPerRead)
	channels := make([][]float64, numChannels)

	slog.Debug("raw.Decode", "encoding", format.Encoding, "channels", numChannels, "stage", "start")

	for {
		n, err := io.ReadFull(reader, buf)
		if n%frameSize != 0 && (err == nil || errors.Is(err, io.ErrUnexpectedEOF)) {
			return nil, fmt.Errorf("%w: trailing partial frame (%d bytes, frame is %d)",
				shared.ErrData, n%frameSize, frameSize)
		}

		data := buf[:n]

		for i := 0; i < len(data); i += bytesPerSample {
			channel := (i / bytesPerSample) % numChannels

			sample := decodeSample(data[i:], format.Encoding, gain)
			if math.IsNaN(sample) || math.IsInf(sample, 0) {
				return nil, fmt.Errorf("%w: non-finite sample on channel %d", shared.ErrData, channel)
			}

			channels[channel] = append(channels[channel], sample)
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	}

	length := len(channels[0])
	if length == 0 {
		return nil, fmt.Errorf("%w: no samples", shared.ErrData)
	}

	samples := mat.NewDense(length, numChannels, nil)
	for ch, signal := range channels {
		samples.SetCol(ch, signal)
	}

	slog.Debug("raw.Decode", "samples", length, "stage", "done")

	return &types.Recording{
		Samples:    samples,
		SampleRate: format.SampleRate,
	}, nil
}

//nolint:gosec // two's complement conversion for signed samples
func decodeSample(data []byte, encoding types.Encoding, gain float64) float64 {
	switch encoding {
	case types.EncodingS16:
		return float64(int16(binary.LittleEndian.Uint16(data))) * gain
	case types.EncodingS24:
		value := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
		if value&0x800000 != 0 {
			value |= ^0xFFFFFF
		}

		return float64(value) * gain
	case types.EncodingS32:
		return float64(int32(binary.LittleEndian.Uint32(data))) * gain
	case types.EncodingF32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	case types.EncodingF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data))
	}

	return 0
}
