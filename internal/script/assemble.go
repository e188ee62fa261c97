package script

import "strings"

// Assemble maps chapter outlines onto the final dialogue sequence. For each
// outline in order, line_start is the index of its first dialogue line (0 if
// it has none) and line_end is the index just before the next outline's
// first line, or the end of the sequence for the last outline.
func Assemble(outlines []ChapterOutline, lines []DialogueLine) []Chapter {
	chapters := make([]Chapter, 0, len(outlines))
	for i, o := range outlines {
		start := firstLineIndex(lines, o.ID, 0)

		end := len(lines) - 1
		if i+1 < len(outlines) {
			end = firstLineIndex(lines, outlines[i+1].ID, len(lines)) - 1
		}
		if end < start {
			end = start
		}

		words := 0
		for j := start; j <= end && j < len(lines); j++ {
			words += len(strings.Fields(lines[j].Text))
		}

		title := o.Title
		if title == "" {
			title = "Chapter"
		}
		chapters = append(chapters, Chapter{
			ID:                   o.ID,
			Title:                title,
			EstimatedDurationSec: durationSec(words),
			LineStart:            start,
			LineEnd:              end,
		})
	}
	return chapters
}

// firstLineIndex returns the index of the first line belonging to chapterID,
// or fallback when no line matches.
func firstLineIndex(lines []DialogueLine, chapterID, fallback int) int {
	for i, l := range lines {
		if l.ChapterID == chapterID {
			return i
		}
	}
	return fallback
}

// TotalDurationSec estimates the whole script's duration from its dialogue
// word count.
func TotalDurationSec(lines []DialogueLine) int {
	words := 0
	for _, l := range lines {
		words += len(strings.Fields(l.Text))
	}
	return durationSec(words)
}

func durationSec(words int) int {
	return int(float64(words) / wordsPerSecond)
}
