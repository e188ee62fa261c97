package script

import (
	"fmt"
	"strings"

	"papercast/internal/segment"
)

const (
	// maxPlanSections bounds how many section titles the planner sees.
	maxPlanSections = 8
	// planExcerptChars is the per-section excerpt length in the plan prompt.
	planExcerptChars = 150
	// maxContextSections bounds the document context in dialogue prompts.
	maxContextSections = 7
	// contextExcerptChars is the per-section excerpt length in dialogue context.
	contextExcerptChars = 400
	// dialogueContextChars caps the total context passed per chapter.
	dialogueContextChars = 2000
	// studySampleChars is how much raw document text the study prompt sees.
	studySampleChars = 5000
)

func chapterPlanPrompt(doc *segment.ParsedDocument) string {
	var sections []string
	for i, sec := range doc.Sections {
		if i >= maxPlanSections {
			break
		}
		sections = append(sections, fmt.Sprintf("- %s: %s...", sec.Title, truncate(sec.Body, planExcerptChars)))
	}

	return fmt.Sprintf(`Create 3 podcast chapters for this academic paper.

Title: %s
Authors: %s
Sections found:
%s

Return ONLY a JSON object with no markdown:
{
  "chapters": [
    {
      "id": 1,
      "title": "Short catchy chapter title",
      "hook": "Surprising opening question or fact",
      "concepts": ["concept1", "concept2"]
    }
  ]
}`, doc.Title(), doc.Authors(), strings.Join(sections, "\n"))
}

// documentContext collects bounded excerpts from the leading sections for
// use in every chapter's dialogue prompt.
func documentContext(doc *segment.ParsedDocument) string {
	var parts []string
	for i, sec := range doc.Sections {
		if i >= maxContextSections {
			break
		}
		parts = append(parts, truncate(sec.Body, contextExcerptChars))
	}
	return truncate(strings.Join(parts, "\n\n"), dialogueContextChars)
}

func dialoguePrompt(ch ChapterOutline, docContext string, first, last bool) string {
	intro := "Continue the conversation smoothly."
	if first {
		intro = "Open with a podcast welcome and tease the paper's most interesting finding."
	}
	outro := "End by teasing the next chapter."
	if last {
		outro = "End with an encouraging sign-off and tell listeners to take the quiz!"
	}

	concepts := strings.Join(ch.Concepts, ", ")
	if concepts == "" {
		concepts = "the main ideas"
	}
	hook := ch.Hook
	if hook == "" {
		hook = "Let us explore this topic"
	}
	title := ch.Title
	if title == "" {
		title = "Discussion"
	}

	return fmt.Sprintf(`Write podcast dialogue between two hosts.
Host A: Curious, funny, asks simple relatable questions.
Host B: Knowledgeable expert, explains clearly with fun analogies.

Chapter: %q
Opening hook: %q
Key concepts: %s

Paper context: %s

1. %s
2. Host A opens with the hook in their first line.
3. Include one funny analogy.
4. %s
5. Write exactly 12-15 lines total alternating A and B.

Return ONLY a JSON array:
[ {"host": "A", "text": "..."}, {"host": "B", "text": "..."} ]`,
		title, hook, concepts, docContext, intro, outro)
}

func studyPrompt(doc *segment.ParsedDocument) string {
	return fmt.Sprintf(`Create study materials for this academic paper.

Paper: %q

Text sample:
%s

Return ONLY a JSON object:
{
  "study_guide": "# Research Summary\n\n... (detailed summary)",
  "quiz": [
    {
      "question": "...",
      "options": ["...", "..."],
      "correct_index": 0,
      "explanation": "..."
    }
  ]
}

Write exactly 6 quiz questions.`, doc.Title(), truncate(doc.RawText, studySampleChars))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
