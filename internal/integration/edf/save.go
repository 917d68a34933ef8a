package edf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/OpenPSG/edf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

// ErrWrite wraps failures to produce an EDF file.
var ErrWrite = errors.New("failed to write EDF")

// Meta carries the descriptive header fields of a saved recording.
type Meta struct {
	PatientID   string
	RecordingID string
	StartTime   time.Time
	Dimension   string // physical unit, default "uV"
}

// SaveFile creates or truncates filePath and saves the recording to it.
func SaveFile(filePath string, rec *types.Recording, meta Meta) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err = Save(file, rec, meta); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// Save writes the recording as EDF with one-second data records.
// The sample rate must be a whole number of Hz, and the length a whole number of seconds.
// Samples are quantized to 16 bits over each channel's range.
func Save(w io.WriteSeeker, rec *types.Recording, meta Meta) error {
	length, channels := rec.Length(), rec.Channels()
	if length == 0 || channels == 0 {
		return fmt.Errorf("%w: empty recording", shared.ErrData)
	}

	perRecord := int(rec.SampleRate)
	if perRecord <= 0 || float64(perRecord) != rec.SampleRate {
		return fmt.Errorf("%w: sample rate %v Hz is not a positive whole number", shared.ErrData, rec.SampleRate)
	}

	if length%perRecord != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of seconds at %d Hz", shared.ErrData, length, perRecord)
	}

	if channels*perRecord*2 > maxRecordBytes {
		return fmt.Errorf("%w: %d channels at %d Hz exceed the %d bytes data record limit",
			shared.ErrData, channels, perRecord, maxRecordBytes)
	}

	if meta.Dimension == "" {
		meta.Dimension = "uV"
	}

	if meta.StartTime.IsZero() {
		meta.StartTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	columns := make([][]float64, channels)
	header := edf.Header{
		Version:            edf.Version0,
		PatientID:          meta.PatientID,
		RecordingID:        meta.RecordingID,
		StartTime:          meta.StartTime,
		DataRecordDuration: time.Second,
		SignalCount:        channels,
		Signals:            make([]edf.Signal, channels),
	}

	for ch := range channels {
		columns[ch] = mat.Col(nil, ch, rec.Samples)
		low, high := physicalRange(columns[ch])

		header.Signals[ch] = edf.Signal{
			Label:             truncate(rec.Label(ch), labelBytes),
			TransducerType:    "extracellular electrode",
			PhysicalDimension: meta.Dimension,
			PhysicalMin:       low,
			PhysicalMax:       high,
			DigitalMin:        math.MinInt16,
			DigitalMax:        math.MaxInt16,
			SamplesPerRecord:  perRecord,
		}
	}

	slog.Debug("edf.Save", "channels", channels, "samples", length, "stage", "start")

	writer, err := edf.Create(w, header)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	record := make([][]float64, channels)

	for start := 0; start < length; start += perRecord {
		for ch := range channels {
			record[ch] = columns[ch][start : start+perRecord]
		}

		if err = writer.WriteRecord(record); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	if err = writer.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	slog.Debug("edf.Save", "records", length/perRecord, "stage", "done")

	return nil
}

// physicalRange returns bounds enclosing the signal that survive the header's
// fixed-width text encoding unchanged. A flat signal gets a unit margin.
func physicalRange(signal []float64) (float64, float64) {
	low, high := floats.Min(signal), floats.Max(signal)
	if low == high {
		low--
		high++
	}

	return roundBound(low, math.Floor), roundBound(high, math.Ceil)
}

func roundBound(value float64, round func(float64) float64) float64 {
	// Two decimals fit the 8 character field up to 9999.99.
	if math.Abs(value) < 9999 {
		return round(value*100) / 100
	}

	return round(value)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
