// Package jobs owns the per-job state machine: one background run per job
// id, idempotent enqueue, and snapshot polling.
package jobs

import (
	"papercast/internal/audio"
	"papercast/internal/script"
)

// Status represents the current state of a generation job.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusParsing      Status = "PARSING"
	StatusScripting    Status = "SCRIPTING"
	StatusSynthesising Status = "SYNTHESISING"
	StatusMixing       Status = "MIXING"
	StatusDone         Status = "DONE"
	StatusError        Status = "ERROR"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Result is the final output of a completed job. Audio fields are empty for
// script-only runs.
type Result struct {
	AudioPath    string               `json:"audio_path,omitempty"`
	CaptionsPath string               `json:"captions_path,omitempty"`
	DurationSec  float64              `json:"duration_sec"`
	Chapters     []audio.TimedChapter `json:"chapters,omitempty"`
}

// Record is one job's visible state. It is mutated only by the single
// background run that owns the job id and read concurrently via snapshots.
type Record struct {
	JobID       string                `json:"job_id"`
	Status      Status                `json:"status"`
	ProgressPct int                   `json:"progress_pct"`
	Message     string                `json:"message"`
	Script      *script.PodcastScript `json:"script,omitempty"`
	Result      *Result               `json:"result,omitempty"`
}
