package script

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"papercast/internal/providers"
	"papercast/internal/segment"
)

// DialogueSynthesizer generates dialogue lines for each chapter with one
// concurrent generation call per chapter.
type DialogueSynthesizer struct {
	client providers.TextClient
	logger *slog.Logger
}

// NewDialogueSynthesizer creates a DialogueSynthesizer.
func NewDialogueSynthesizer(client providers.TextClient, logger *slog.Logger) *DialogueSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogueSynthesizer{client: client, logger: logger}
}

// Synthesize fans out one generation call per chapter (at most
// maxDialogueChapters) and joins the results in original chapter order,
// regardless of which call completes first. A malformed response degrades to
// an empty line list for that chapter only; a failed generation call is
// fatal and cancels the remaining calls.
func (s *DialogueSynthesizer) Synthesize(ctx context.Context, doc *segment.ParsedDocument, chapters []ChapterOutline) ([]DialogueLine, error) {
	if len(chapters) > maxDialogueChapters {
		chapters = chapters[:maxDialogueChapters]
	}
	docContext := documentContext(doc)

	// Results are slotted by chapter index so the flatten below preserves
	// outline order independent of completion order.
	perChapter := make([][]DialogueLine, len(chapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chapters {
		g.Go(func() error {
			lines, err := s.synthesizeChapter(gctx, ch, docContext, i == 0, i == len(chapters)-1)
			if err != nil {
				return err
			}
			perChapter[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []DialogueLine
	for _, lines := range perChapter {
		all = append(all, lines...)
	}

	s.logger.Info("dialogue synthesis complete", "job_id", doc.JobID,
		"chapters", len(chapters), "lines", len(all))
	return all, nil
}

func (s *DialogueSynthesizer) synthesizeChapter(ctx context.Context, ch ChapterOutline, docContext string, first, last bool) ([]DialogueLine, error) {
	raw, err := s.client.Generate(ctx, dialoguePrompt(ch, docContext, first, last))
	if err != nil {
		return nil, err
	}

	var decoded []struct {
		Host string `json:"host"`
		Text string `json:"text"`
	}
	if !providers.DecodeLenient(s.logger, raw, &decoded) {
		s.logger.Warn("chapter dialogue undecodable, keeping chapter empty", "chapter_id", ch.ID)
		return nil, nil
	}

	lines := make([]DialogueLine, 0, len(decoded))
	for _, d := range decoded {
		host := strings.ToUpper(strings.TrimSpace(d.Host))
		text := strings.TrimSpace(d.Text)
		if host == "" || text == "" {
			continue
		}
		lines = append(lines, DialogueLine{Host: host, Text: text, ChapterID: ch.ID})
	}
	return lines, nil
}

// FlattenDialogue renders dialogue lines as the plain text consumed by the
// audio synthesis collaborator.
func FlattenDialogue(lines []DialogueLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, "Host "+l.Host+": "+l.Text)
	}
	return strings.Join(parts, "\n")
}
