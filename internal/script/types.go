// Package script drives the multi-stage podcast script generation plan:
// chapter outline, concurrent per-chapter dialogue, study materials, and
// final assembly with line-index ranges and duration estimates.
package script

// wordsPerSecond is the speech-rate heuristic used for all duration
// estimates.
const wordsPerSecond = 2.5

// maxDialogueChapters caps how many outline chapters receive dialogue.
const maxDialogueChapters = 3

// Speaker tags for the two hosts.
const (
	HostA = "A"
	HostB = "B"
)

// ChapterOutline is the planner's intermediate representation of a chapter
// before any dialogue exists. IDs are dense and 1-based in plan order.
type ChapterOutline struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Hook     string   `json:"hook"`
	Concepts []string `json:"concepts"`
}

// DialogueLine is one spoken line, tagged with the chapter it belongs to.
type DialogueLine struct {
	Host      string `json:"host"`
	Text      string `json:"text"`
	ChapterID int    `json:"chapter_id"`
}

// Chapter is a final chapter: a range of indices into the script's dialogue
// sequence plus a duration estimate.
type Chapter struct {
	ID                   int    `json:"id"`
	Title                string `json:"title"`
	EstimatedDurationSec int    `json:"estimated_duration_sec"`
	LineStart            int    `json:"line_start"`
	LineEnd              int    `json:"line_end"`
}

// QuizQuestion is a single multiple-choice question with its answer key.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// PodcastScript is the final generation output for one job.
type PodcastScript struct {
	JobID                     string         `json:"job_id"`
	PaperTitle                string         `json:"paper_title"`
	PaperAuthors              string         `json:"paper_authors"`
	TotalEstimatedDurationSec int            `json:"total_estimated_duration_sec"`
	Chapters                  []Chapter      `json:"chapters"`
	Dialogue                  []DialogueLine `json:"dialogue"`
	StudyGuide                string         `json:"study_guide"`
	QuizQuestions             []QuizQuestion `json:"quiz_questions"`
}
