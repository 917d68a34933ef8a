//nolint:wrapcheck
package main

import (
	"math"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/farcloser/neurite"
)

// channelRow is one channel of one recording, flattened for columnar analysis.
type channelRow struct {
	File                string   `parquet:"file"`
	Channel             int32    `parquet:"channel"`
	Label               string   `parquet:"label"`
	Threshold           float64  `parquet:"threshold"`
	Crossings           int64    `parquet:"crossings"`
	SpikeCount          int64    `parquet:"spike_count"`
	Rejected            int64    `parquet:"rejected"`
	AverageSNR          *float64 `parquet:"average_snr,optional"`
	AveragePeakToTrough *float64 `parquet:"average_peak_to_trough,optional"`
	FiringRateHz        float64  `parquet:"firing_rate_hz"`
	SaturatedRuns       int64    `parquet:"saturated_runs"`
	Silent              bool     `parquet:"silent"`
	Quality             string   `parquet:"quality"`
}

func channelRows(filePath string, result *neurite.Result) []channelRow {
	rows := make([]channelRow, 0, len(result.Channels))

	for i := range result.Channels {
		report := &result.Channels[i]

		rows = append(rows, channelRow{
			File:                filePath,
			Channel:             int32(report.Channel), //nolint:gosec // channel counts are small
			Label:               report.Label,
			Threshold:           report.Threshold,
			Crossings:           int64(report.Crossings),
			SpikeCount:          int64(report.SpikeCount),
			Rejected:            int64(report.Rejected),
			AverageSNR:          optional(report.AverageSNR),
			AveragePeakToTrough: optional(report.AveragePeakToTrough),
			FiringRateHz:        report.FiringRateHz,
			SaturatedRuns:       saturatedRuns(report),
			Silent:              report.Silent,
			Quality:             report.Quality.String(),
		})
	}

	return rows
}

func saturatedRuns(report *neurite.ChannelReport) int64 {
	if report.Saturation == nil {
		return 0
	}

	return int64(report.Saturation.Events) //nolint:gosec // bounded by the sample count
}

// optional maps the NaN sentinel of silent channels to a null value.
func optional(value float64) *float64 {
	if math.IsNaN(value) {
		return nil
	}

	return &value
}

func writeParquet(path string, rows []channelRow, redact bool) error {
	if redact {
		for i := range rows {
			rows[i].File = ""
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[channelRow](file, parquet.Compression(&parquet.Snappy))

	if _, err = writer.Write(rows); err != nil {
		return err
	}

	if err = writer.Close(); err != nil {
		return err
	}

	return file.Close()
}
