package script

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"papercast/internal/providers"
	"papercast/internal/segment"
)

// Generator runs the full script generation plan for one document: chapter
// outline first, then dialogue and study materials concurrently, then final
// assembly.
type Generator struct {
	planner  *Planner
	dialogue *DialogueSynthesizer
	study    *StudyMaterialGenerator
	logger   *slog.Logger
}

// NewGenerator wires the generation stages onto a shared text client.
func NewGenerator(client providers.TextClient, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		planner:  NewPlanner(client, logger),
		dialogue: NewDialogueSynthesizer(client, logger),
		study:    NewStudyMaterialGenerator(client, logger),
		logger:   logger,
	}
}

// GenerateScript produces the complete podcast script for a parsed document.
// Dialogue synthesis and study-material generation run concurrently and the
// stage resumes only once both have completed or failed.
func (g *Generator) GenerateScript(ctx context.Context, doc *segment.ParsedDocument) (*PodcastScript, error) {
	outlines, err := g.planner.Plan(ctx, doc)
	if err != nil {
		return nil, err
	}

	var (
		lines []DialogueLine
		guide string
		quiz  []QuizQuestion
	)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var dErr error
		lines, dErr = g.dialogue.Synthesize(egctx, doc, outlines)
		return dErr
	})
	eg.Go(func() error {
		var sErr error
		guide, quiz, sErr = g.study.GenerateMaterials(egctx, doc)
		return sErr
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	script := &PodcastScript{
		JobID:                     doc.JobID,
		PaperTitle:                doc.Title(),
		PaperAuthors:              doc.Authors(),
		TotalEstimatedDurationSec: TotalDurationSec(lines),
		Chapters:                  Assemble(outlines, lines),
		Dialogue:                  lines,
		StudyGuide:                guide,
		QuizQuestions:             quiz,
	}

	g.logger.Info("script generation complete", "job_id", doc.JobID,
		"lines", len(lines), "chapters", len(script.Chapters),
		"duration_sec", script.TotalEstimatedDurationSec)
	return script, nil
}
