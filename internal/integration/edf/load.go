// Package edf reads and writes multi-channel recordings in the European Data Format (EDF/EDF+).
package edf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/OpenPSG/edf"
	"github.com/farcloser/primordium/fault"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

const readChunk = 4096

// LoadFile opens and loads an EDF file.
func LoadFile(filePath string) (*types.Recording, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	return Load(file)
}

// Load decodes every data signal of an EDF stream into a recording, one column per signal.
// Annotation signals are skipped. Data signals must share the same samples per record.
func Load(r io.ReadSeeker) (*types.Recording, error) {
	slog.Debug("edf.Load", "stage", "start")

	info, err := Inspect(r)
	if err != nil {
		return nil, err
	}

	if info.Records < 0 {
		return nil, fmt.Errorf("%w: unfinished recording (unknown number of data records)", shared.ErrData)
	}

	signals := make([]int, 0, len(info.Labels))

	for i, label := range info.Labels {
		if label == annotationsLabel {
			continue
		}

		if len(signals) > 0 && info.SamplesPerRecord[i] != info.SamplesPerRecord[signals[0]] {
			return nil, fmt.Errorf("%w: signal %d (%s) has %d samples per record, expected %d",
				shared.ErrData, i, label, info.SamplesPerRecord[i], info.SamplesPerRecord[signals[0]])
		}

		signals = append(signals, i)
	}

	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: no data signals", shared.ErrData)
	}

	length := info.Records * info.SamplesPerRecord[signals[0]]
	if length == 0 {
		return nil, fmt.Errorf("%w: no samples", shared.ErrData)
	}

	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	reader, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	rec := &types.Recording{
		Samples:    mat.NewDense(length, len(signals), nil),
		SampleRate: info.SampleRate(signals[0]),
		Labels:     make([]string, len(signals)),
	}

	buf := make([]float64, readChunk)

	for col, index := range signals {
		rec.Labels[col] = info.Labels[index]

		signal, err := reader.Signal(index)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}

		offset := 0
		for offset < length {
			n, err := signal.Read(buf[:min(readChunk, length-offset)])
			for k := range n {
				rec.Samples.Set(offset+k, col, buf[k])
			}

			offset += n

			if errors.Is(err, io.EOF) {
				break
			}

			if err != nil {
				return nil, fmt.Errorf("%w: signal %d: %w", fault.ErrReadFailure, index, err)
			}
		}

		if offset != length {
			return nil, fmt.Errorf("%w: signal %d truncated at %d of %d samples", shared.ErrData, index, offset, length)
		}
	}

	slog.Debug("edf.Load", "channels", len(signals), "samples", length, "rate", rec.SampleRate, "stage", "done")

	return rec, nil
}
