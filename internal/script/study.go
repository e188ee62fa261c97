package script

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"papercast/internal/providers"
	"papercast/internal/segment"
)

// StudyMaterialGenerator produces a study guide and quiz questions from the
// document's raw text.
type StudyMaterialGenerator struct {
	client providers.TextClient
	logger *slog.Logger
}

// NewStudyMaterialGenerator creates a StudyMaterialGenerator.
func NewStudyMaterialGenerator(client providers.TextClient, logger *slog.Logger) *StudyMaterialGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyMaterialGenerator{client: client, logger: logger}
}

const guideUnavailable = "Study guide unavailable."

// GenerateMaterials makes a single generation call over the leading document
// text. The study-guide field may legitimately come back as a single text
// block or as a key-to-text mapping; mappings are flattened into Markdown
// sections. Quiz entries missing required fields are skipped individually.
func (g *StudyMaterialGenerator) GenerateMaterials(ctx context.Context, doc *segment.ParsedDocument) (string, []QuizQuestion, error) {
	raw, err := g.client.Generate(ctx, studyPrompt(doc))
	if err != nil {
		return "", nil, err
	}

	var decoded struct {
		StudyGuide any `json:"study_guide"`
		Quiz       []struct {
			Question     string   `json:"question"`
			Options      []string `json:"options"`
			CorrectIndex *int     `json:"correct_index"`
			Explanation  string   `json:"explanation"`
		} `json:"quiz"`
	}
	providers.DecodeLenient(g.logger, raw, &decoded)

	guide := flattenGuide(decoded.StudyGuide)
	if guide == "" {
		guide = guideUnavailable
	}

	questions := make([]QuizQuestion, 0, len(decoded.Quiz))
	for i, q := range decoded.Quiz {
		if q.Question == "" || len(q.Options) < 2 || q.CorrectIndex == nil ||
			*q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options) {
			g.logger.Warn("skipping malformed quiz question", "job_id", doc.JobID, "index", i)
			continue
		}
		questions = append(questions, QuizQuestion{
			Question:     q.Question,
			Options:      q.Options,
			CorrectIndex: *q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}

	g.logger.Info("study materials ready", "job_id", doc.JobID,
		"guide_chars", len(guide), "quiz_questions", len(questions))
	return guide, questions, nil
}

// flattenGuide accepts either a plain string or a key-to-text mapping and
// renders the latter as Markdown sections with humanized headings. Keys are
// sorted for deterministic output.
func flattenGuide(v any) string {
	switch g := v.(type) {
	case string:
		return strings.TrimSpace(g)
	case map[string]any:
		keys := make([]string, 0, len(g))
		for k := range g {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sections []string
		for _, k := range keys {
			sections = append(sections, fmt.Sprintf("## %s\n%v", humanizeKey(k), g[k]))
		}
		return strings.Join(sections, "\n\n")
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", g))
	}
}

// humanizeKey turns "key_concepts" into "Key Concepts".
func humanizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
