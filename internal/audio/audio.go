// Package audio holds the synthesis and mixing collaborators consumed after
// script generation. Both are thin wrappers; the script pipeline treats them
// as opaque.
package audio

import "context"

// Synthesizer converts flattened dialogue text into spoken audio.
type Synthesizer interface {
	// Synthesize renders the script with the given voice pair and returns
	// encoded audio bytes.
	Synthesize(ctx context.Context, scriptText, voicePair string) ([]byte, error)
}

// TimedChapter is a span of the final audio in seconds.
type TimedChapter struct {
	Title    string  `json:"title"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// MixResult is the mixing collaborator's output: final audio on disk, a
// WebVTT caption track, and chapter timings whose spans sum to the episode
// duration.
type MixResult struct {
	AudioPath    string         `json:"audio_path"`
	CaptionsPath string         `json:"captions_path"`
	Chapters     []TimedChapter `json:"chapters"`
}

// Mixer produces the final episode assets from synthesized audio.
type Mixer interface {
	Mix(ctx context.Context, scriptText string, synthesized []byte, jobID string) (*MixResult, error)
}
