package script

import (
	"context"
	"errors"
	"testing"

	"papercast/internal/providers"
)

func TestGenerateScript(t *testing.T) {
	logger := discardLogger()

	t.Run("composes full script", func(t *testing.T) {
		mock := providers.NewMockTextClient()
		mock.Respond("podcast chapters", `{"chapters": [
			{"title": "Alpha", "hook": "h1", "concepts": ["a"]},
			{"title": "Beta", "hook": "h2", "concepts": ["b"]}
		]}`)
		mock.Respond(`Chapter: "Alpha"`, `[
			{"host": "A", "text": "welcome everyone to the show"},
			{"host": "B", "text": "great to be here today"}
		]`)
		mock.Respond(`Chapter: "Beta"`, `[
			{"host": "A", "text": "now the key result"}
		]`)
		mock.Respond("study materials", `{
			"study_guide": "# Summary\nThings.",
			"quiz": [{"question": "Q?", "options": ["a", "b"], "correct_index": 0, "explanation": "e"}]
		}`)

		script, err := NewGenerator(mock, logger).GenerateScript(context.Background(), testDoc())
		if err != nil {
			t.Fatalf("GenerateScript: %v", err)
		}

		if script.JobID != "job-1" {
			t.Errorf("job id = %q", script.JobID)
		}
		if script.PaperTitle != "A Study of Things" || script.PaperAuthors != "Doe, Roe" {
			t.Errorf("metadata = %q / %q", script.PaperTitle, script.PaperAuthors)
		}
		if len(script.Dialogue) != 3 {
			t.Fatalf("got %d dialogue lines, want 3", len(script.Dialogue))
		}
		if len(script.Chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(script.Chapters))
		}
		if script.Chapters[0].LineStart != 0 || script.Chapters[0].LineEnd != 1 {
			t.Errorf("chapter 1 range = (%d, %d), want (0, 1)",
				script.Chapters[0].LineStart, script.Chapters[0].LineEnd)
		}
		if script.Chapters[1].LineStart != 2 || script.Chapters[1].LineEnd != 2 {
			t.Errorf("chapter 2 range = (%d, %d), want (2, 2)",
				script.Chapters[1].LineStart, script.Chapters[1].LineEnd)
		}
		// 14 dialogue words at 2.5 words/sec.
		if script.TotalEstimatedDurationSec != 5 {
			t.Errorf("duration = %d, want 5", script.TotalEstimatedDurationSec)
		}
		if len(script.QuizQuestions) != 1 || script.StudyGuide == "" {
			t.Errorf("study materials missing: guide=%q quiz=%+v", script.StudyGuide, script.QuizQuestions)
		}
	})

	t.Run("planner failure aborts before dialogue", func(t *testing.T) {
		mock := providers.NewMockTextClient()
		genErr := &providers.GenerationError{Message: "boom"}
		mock.Fail("podcast chapters", genErr)

		_, err := NewGenerator(mock, logger).GenerateScript(context.Background(), testDoc())
		if !errors.Is(err, genErr) {
			t.Fatalf("got err %v, want %v", err, genErr)
		}
		if mock.CallCount() != 1 {
			t.Errorf("got %d calls, want 1", mock.CallCount())
		}
	})

	t.Run("study failure fails the script stage", func(t *testing.T) {
		mock := providers.NewMockTextClient()
		genErr := &providers.GenerationError{Message: "boom"}
		mock.Respond("podcast chapters", `{"chapters": [{"title": "Alpha"}]}`)
		mock.Fail("study materials", genErr)
		mock.SetDefault(`[{"host": "A", "text": "line"}]`)

		_, err := NewGenerator(mock, logger).GenerateScript(context.Background(), testDoc())
		if !errors.Is(err, genErr) {
			t.Fatalf("got err %v, want %v", err, genErr)
		}
	})
}
