package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"papercast/internal/audio"
	"papercast/internal/script"
	"papercast/internal/segment"
)

// maxErrorMessageLen bounds the summarized message stored on ERROR records.
const maxErrorMessageLen = 200

// Segmenter is the document-scanning stage consumed by the pipeline.
type Segmenter interface {
	Segment(ctx context.Context, path, jobID string) (*segment.ParsedDocument, error)
}

// ScriptGenerator is the script-generation stage consumed by the pipeline.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, doc *segment.ParsedDocument) (*script.PodcastScript, error)
}

// Request describes one generation run.
type Request struct {
	JobID     string
	PDFPath   string
	VoicePair string
}

// Orchestrator runs the generation pipeline for each enqueued job and keeps
// the job registry current. Synthesizer and Mixer are optional; when either
// is nil the run completes after scripting with a script-only result.
type Orchestrator struct {
	store       Store
	segmenter   Segmenter
	generator   ScriptGenerator
	synthesizer audio.Synthesizer
	mixer       audio.Mixer
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store Store, seg Segmenter, gen ScriptGenerator, synth audio.Synthesizer, mixer audio.Mixer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:       store,
		segmenter:   seg,
		generator:   gen,
		synthesizer: synth,
		mixer:       mixer,
		logger:      logger,
	}
}

// Enqueue starts a background run for the request's job id. When a non-error
// record already exists the existing snapshot is returned unchanged and no
// second run starts. An ERROR record may be re-enqueued as a fresh run.
func (o *Orchestrator) Enqueue(ctx context.Context, req Request) (Record, error) {
	if req.JobID == "" {
		return Record{}, fmt.Errorf("job id is required")
	}

	rec, claimed := o.store.Claim(Record{
		JobID:   req.JobID,
		Status:  StatusPending,
		Message: "Generation queued...",
	})
	if !claimed {
		return rec, nil
	}

	// The run outlives the enqueue request; only process shutdown stops it.
	runCtx := context.WithoutCancel(ctx)
	go o.run(runCtx, req)

	return rec, nil
}

// Poll returns a snapshot of the record for id.
func (o *Orchestrator) Poll(id string) (Record, bool) {
	return o.store.Get(id)
}

// run executes the whole pipeline for one job. Every failure, panics
// included, lands in a terminal ERROR record; nothing escapes to the caller.
func (o *Orchestrator) run(ctx context.Context, req Request) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(req.JobID, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	update := func(status Status, pct int, msg string) {
		o.store.Put(Record{JobID: req.JobID, Status: status, ProgressPct: pct, Message: msg})
	}

	update(StatusParsing, 5, "Loading document...")
	doc, err := o.segmenter.Segment(ctx, req.PDFPath, req.JobID)
	if err != nil {
		o.fail(req.JobID, err)
		return
	}

	update(StatusScripting, 20, "Generating script with Gemini...")
	podcastScript, err := o.generator.GenerateScript(ctx, doc)
	if err != nil {
		o.fail(req.JobID, err)
		return
	}
	o.store.Put(Record{
		JobID:       req.JobID,
		Status:      StatusScripting,
		ProgressPct: 50,
		Message:     "Script generated.",
		Script:      podcastScript,
	})

	if o.synthesizer == nil || o.mixer == nil {
		o.store.Put(Record{
			JobID:       req.JobID,
			Status:      StatusDone,
			ProgressPct: 100,
			Message:     "Podcast script ready.",
			Script:      podcastScript,
			Result:      &Result{DurationSec: float64(podcastScript.TotalEstimatedDurationSec)},
		})
		return
	}

	scriptText := script.FlattenDialogue(podcastScript.Dialogue)

	update(StatusSynthesising, 55, "Synthesising voices...")
	synthesized, err := o.synthesizer.Synthesize(ctx, scriptText, req.VoicePair)
	if err != nil {
		o.fail(req.JobID, err)
		return
	}
	update(StatusSynthesising, 80, "Synthesis complete.")

	update(StatusMixing, 82, "Mixing final audio...")
	mixed, err := o.mixer.Mix(ctx, scriptText, synthesized, req.JobID)
	if err != nil {
		o.fail(req.JobID, err)
		return
	}

	duration := 0.0
	for _, ch := range mixed.Chapters {
		duration += ch.EndSec - ch.StartSec
	}

	o.store.Put(Record{
		JobID:       req.JobID,
		Status:      StatusDone,
		ProgressPct: 100,
		Message:     "Podcast ready!",
		Script:      podcastScript,
		Result: &Result{
			AudioPath:    mixed.AudioPath,
			CaptionsPath: mixed.CaptionsPath,
			DurationSec:  duration,
			Chapters:     mixed.Chapters,
		},
	})
}

// fail logs the full error and records the terminal ERROR state with a
// summarized message.
func (o *Orchestrator) fail(jobID string, err error) {
	o.logger.Error("pipeline failed", "job_id", jobID, "error", err)
	o.store.Put(Record{
		JobID:   jobID,
		Status:  StatusError,
		Message: "Error: " + summarize(err),
	})
}

func summarize(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen] + "..."
	}
	return msg
}
