package edf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/neurite/internal/audit/shared"
)

const (
	fixedHeaderBytes  = 256
	signalHeaderBytes = 256
	labelBytes        = 16
	// Label, transducer, dimension, physical min/max, digital min/max and prefiltering precede samples per record.
	samplesFieldOffset = 16 + 80 + 8 + 8 + 8 + 8 + 8 + 80
	numberBytes        = 8

	annotationsLabel = "EDF Annotations"

	// Largest data record the writer accepts.
	maxRecordBytes = 61440
)

/*
EDF layout

| Bytes            | Field                                         |
|------------------|-----------------------------------------------|
| 0 - 255          | fixed header (version, ids, start, counts)    |
| 184 - 191        | header bytes, 256 + ns*256                    |
| 236 - 243        | number of data records (-1 while writing)     |
| 244 - 251        | data record duration in seconds               |
| 252 - 255        | number of signals (ns)                        |
| 256 - 256+ns*256 | per-signal fields, grouped by field           |
| then             | data records, int16 little endian per signal  |

Every signal has its own samples per record, so its rate is samples / duration.
Extracellular channels sharing a probe share a rate; EDF+ annotation signals are skipped.
*/

// Info is the part of an EDF header needed to lay the signals out as a recording.
type Info struct {
	Labels           []string
	SamplesPerRecord []int
	RecordDuration   float64 // seconds
	Records          int
}

// SampleRate returns the rate of a signal in Hz, or 0 when the record duration is unknown.
func (info *Info) SampleRate(signal int) float64 {
	if info.RecordDuration <= 0 || signal < 0 || signal >= len(info.SamplesPerRecord) {
		return 0
	}

	return float64(info.SamplesPerRecord[signal]) / info.RecordDuration
}

// Inspect reads the header fields that the decoder does not expose.
// The stream is left positioned after the header.
func Inspect(r io.ReadSeeker) (*Info, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	fixed := make([]byte, fixedHeaderBytes)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("%w: header: %w", fault.ErrReadFailure, err)
	}

	records, err := strconv.Atoi(field(fixed, 236, numberBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: number of data records: %w", shared.ErrData, err)
	}

	duration, err := strconv.ParseFloat(field(fixed, 244, numberBytes), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: data record duration: %w", shared.ErrData, err)
	}

	count, err := strconv.Atoi(field(fixed, 252, 4))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: number of signals %q", shared.ErrData, field(fixed, 252, 4))
	}

	headerBytes, err := strconv.Atoi(field(fixed, 184, numberBytes))
	if err != nil || headerBytes != fixedHeaderBytes+count*signalHeaderBytes {
		return nil, fmt.Errorf("%w: header size %q does not match %d signals",
			shared.ErrData, field(fixed, 184, numberBytes), count)
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if size < int64(headerBytes) {
		return nil, fmt.Errorf("%w: header of %d bytes in a %d byte file", shared.ErrData, headerBytes, size)
	}

	if _, err = r.Seek(fixedHeaderBytes, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	signals := make([]byte, count*signalHeaderBytes)
	if _, err = io.ReadFull(r, signals); err != nil {
		return nil, fmt.Errorf("%w: signal headers: %w", fault.ErrReadFailure, err)
	}

	info := &Info{
		Labels:           make([]string, count),
		SamplesPerRecord: make([]int, count),
		RecordDuration:   duration,
		Records:          records,
	}

	for i := range count {
		info.Labels[i] = field(signals, i*labelBytes, labelBytes)

		spr, err := strconv.Atoi(field(signals, count*samplesFieldOffset+i*numberBytes, numberBytes))
		if err != nil || spr < 0 {
			return nil, fmt.Errorf("%w: samples per record of signal %d", shared.ErrData, i)
		}

		info.SamplesPerRecord[i] = spr
	}

	return info, nil
}

func field(b []byte, offset, width int) string {
	return strings.TrimSpace(string(b[offset : offset+width]))
}
