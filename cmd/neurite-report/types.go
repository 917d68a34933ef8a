//nolint:tagliatelle
package main

// Record is a single line in the JSONL report file.
type Record struct {
	File      string         `json:"file,omitempty"`
	Recording *RecordingInfo `json:"recording,omitempty"`
	Analysis  map[string]any `json:"analysis,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timing    *RecordTiming  `json:"timing,omitempty"`
}

// RecordingInfo describes the loaded recording.
type RecordingInfo struct {
	Channels   int      `json:"channels"`
	Samples    int      `json:"samples"`
	SampleRate float64  `json:"sample_rate"`
	Labels     []string `json:"labels,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	LoadMs    float64 `json:"load_ms"`
	AnalyzeMs float64 `json:"analyze_ms"`
	TotalMs   float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string          `json:"file,omitempty"`
	Analysis *digestAnalysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary  digestSummary   `json:"summary"`
	Channels []digestChannel `json:"channels"`
}

type digestSummary struct {
	SpikeTotal     int    `json:"spike_total"`
	SilentChannels int    `json:"silent_channels"`
	IssueCount     int    `json:"issue_count"`
	WorstSeverity  string `json:"worst_severity"`
}

type digestChannel struct {
	Channel    int      `json:"channel"`
	Label      string   `json:"label"`
	SpikeCount int      `json:"spike_count"`
	AverageSNR *float64 `json:"average_snr"`
	Silent     bool     `json:"silent"`
	Quality    string   `json:"quality"`
	Summary    string   `json:"summary"`
}
