package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// mixWordsPerSecond is the speech-rate heuristic used for caption and
// chapter timings when the real per-line durations are unknown.
const mixWordsPerSecond = 2.5

// FFmpegMixer remuxes synthesized audio into the final episode file and
// writes a WebVTT caption track with one cue per dialogue line.
type FFmpegMixer struct {
	outputDir string
	logger    *slog.Logger
}

// NewFFmpegMixer creates a mixer writing episode assets under outputDir.
func NewFFmpegMixer(outputDir string, logger *slog.Logger) *FFmpegMixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegMixer{outputDir: outputDir, logger: logger}
}

// CheckFFmpegAvailable reports whether the ffmpeg binary is on PATH.
func CheckFFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// Mix writes the synthesized stream to disk, normalizes it through ffmpeg,
// and emits captions plus a single full-episode chapter timing.
func (m *FFmpegMixer) Mix(ctx context.Context, scriptText string, synthesized []byte, jobID string) (*MixResult, error) {
	if len(synthesized) == 0 {
		return nil, fmt.Errorf("no synthesized audio for job %s", jobID)
	}
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	rawPath := filepath.Join(m.outputDir, jobID+".raw.mp3")
	audioPath := filepath.Join(m.outputDir, jobID+".mp3")
	captionsPath := filepath.Join(m.outputDir, jobID+".vtt")

	if err := os.WriteFile(rawPath, synthesized, 0o644); err != nil {
		return nil, fmt.Errorf("writing raw audio: %w", err)
	}
	defer os.Remove(rawPath)

	// Re-encode rather than stream-copy: the input is concatenated MP3
	// segments and needs its timestamps rebuilt.
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", rawPath,
		"-codec:a", "libmp3lame",
		"-q:a", "2",
		"-y",
		audioPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}

	cues, totalSec := buildCues(scriptText)
	if err := os.WriteFile(captionsPath, []byte(renderWebVTT(cues)), 0o644); err != nil {
		return nil, fmt.Errorf("writing captions: %w", err)
	}

	m.logger.Info("episode mixed", "job_id", jobID,
		"audio", audioPath, "captions", captionsPath, "duration_sec", totalSec)

	return &MixResult{
		AudioPath:    audioPath,
		CaptionsPath: captionsPath,
		Chapters: []TimedChapter{
			{Title: "Full episode", StartSec: 0, EndSec: totalSec},
		},
	}, nil
}

type cue struct {
	startSec float64
	endSec   float64
	text     string
}

// buildCues assigns each non-empty line a time span proportional to its
// word count and returns the cues plus the total estimated duration.
func buildCues(scriptText string) ([]cue, float64) {
	var cues []cue
	at := 0.0
	for _, line := range strings.Split(scriptText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dur := float64(len(strings.Fields(line))) / mixWordsPerSecond
		cues = append(cues, cue{startSec: at, endSec: at + dur, text: line})
		at += dur
	}
	return cues, at
}

func renderWebVTT(cues []cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, vttTimestamp(c.startSec), vttTimestamp(c.endSec), c.text)
	}
	return b.String()
}

func vttTimestamp(sec float64) string {
	ms := int(sec * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}

var _ Mixer = (*FFmpegMixer)(nil)
