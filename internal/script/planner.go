package script

import (
	"context"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"papercast/internal/providers"
	"papercast/internal/segment"
)

// chapterPlanSchema describes the shape the planner asks for. Mismatches are
// logged, never rejected.
var chapterPlanSchema = jsonschema.MustCompileString("chapter_plan.json", `{
	"type": "object",
	"properties": {
		"chapters": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"hook": {"type": "string"},
					"concepts": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["title"]
			}
		}
	},
	"required": ["chapters"]
}`)

// Planner turns a segmented document into an ordered chapter outline.
type Planner struct {
	client providers.TextClient
	logger *slog.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(client providers.TextClient, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{client: client, logger: logger}
}

// Plan makes a single generation call and parses the response into chapter
// outlines. IDs supplied by the model are ignored: outlines get dense
// 1-based ids in response order. An empty or undecodable response yields a
// fixed fallback outline so downstream stages always have chapters to work
// with.
func (p *Planner) Plan(ctx context.Context, doc *segment.ParsedDocument) ([]ChapterOutline, error) {
	raw, err := p.client.Generate(ctx, chapterPlanPrompt(doc))
	if err != nil {
		return nil, err
	}

	if normalized, nErr := providers.ExtractJSON(raw); nErr == nil {
		providers.ValidateWarn(p.logger, chapterPlanSchema, normalized)
	}

	var decoded struct {
		Chapters []ChapterOutline `json:"chapters"`
	}
	providers.DecodeLenient(p.logger, raw, &decoded)

	chapters := decoded.Chapters
	for i := range chapters {
		chapters[i].ID = i + 1
	}

	if len(chapters) == 0 {
		p.logger.Warn("no chapters returned, using fallback outline", "job_id", doc.JobID)
		chapters = fallbackOutline()
	}

	p.logger.Info("chapter plan ready", "job_id", doc.JobID, "chapters", len(chapters))
	return chapters, nil
}

// fallbackOutline is the fixed 3-chapter outline used when planning yields
// nothing usable.
func fallbackOutline() []ChapterOutline {
	return []ChapterOutline{
		{ID: 1, Title: "Introduction", Hook: "What makes this paper special?", Concepts: []string{"overview"}},
		{ID: 2, Title: "Core Concepts", Hook: "Here is the key idea explained", Concepts: []string{"methodology"}},
		{ID: 3, Title: "Key Takeaways", Hook: "What should you remember from this?", Concepts: []string{"results"}},
	}
}
