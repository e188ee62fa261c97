package segment

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// span is a positioned run of text with its rendered font.
type span struct {
	text string
	font string
	size float64
	x    float64
	y    float64
	w    float64
}

// line is a horizontal run of spans sharing a baseline.
type line struct {
	spans []span
	y     float64
	size  float64
	bold  bool
	text  string
}

// block is a group of adjacent lines with uniform font size, tagged with the
// page it appeared on. Blocks are the unit of heading classification.
type block struct {
	page     int
	text     string
	fontSize float64
	bold     bool
	heading  bool
}

const (
	// baselineTolerance groups spans onto the same line.
	baselineTolerance = 2.0
	// wordGap inserts a space between spans separated horizontally.
	wordGap = 1.0
)

// extractLines reads the styled text runs of a page and groups them into
// baseline-aligned lines. The pdf package panics on malformed content
// streams; a panic here degrades to no lines for this page only.
func extractLines(p pdf.Page) (lines []line) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
		}
	}()

	content := p.Content()

	var cur []span
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		s := span{text: t.S, font: t.Font, size: t.FontSize, x: t.X, y: t.Y, w: t.W}
		if len(cur) == 0 || math.Abs(s.y-cur[len(cur)-1].y) <= baselineTolerance {
			cur = append(cur, s)
			continue
		}
		if ln, ok := buildLine(cur); ok {
			lines = append(lines, ln)
		}
		cur = []span{s}
	}
	if ln, ok := buildLine(cur); ok {
		lines = append(lines, ln)
	}
	return lines
}

// buildLine joins the spans of one baseline into a line, inserting spaces at
// horizontal gaps and recording the dominant font properties.
func buildLine(spans []span) (line, bool) {
	if len(spans) == 0 {
		return line{}, false
	}

	var sb strings.Builder
	maxSize := 0.0
	bold := false
	for i, s := range spans {
		if i > 0 {
			prev := spans[i-1]
			if s.x-(prev.x+prev.w) > wordGap && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(s.text)
		if s.size > maxSize {
			maxSize = s.size
		}
		if isBoldFont(s.font) {
			bold = true
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return line{}, false
	}
	return line{spans: spans, y: spans[0].y, size: maxSize, bold: bold, text: text}, true
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

// groupBlocks merges adjacent lines of equal font size into blocks. A change
// in font size or a large vertical gap starts a new block.
func groupBlocks(lines []line, page int) []block {
	var blocks []block
	var texts []string
	var size float64
	var bold bool
	var lastY float64

	flush := func() {
		text := strings.TrimSpace(strings.Join(texts, " "))
		if text != "" {
			blocks = append(blocks, block{page: page, text: text, fontSize: size, bold: bold})
		}
		texts = texts[:0]
		bold = false
	}

	for _, ln := range lines {
		sameSize := math.Abs(ln.size-size) < 0.1
		closeBy := len(texts) == 0 || math.Abs(lastY-ln.y) <= ln.size*1.8
		if len(texts) > 0 && (!sameSize || !closeBy) {
			flush()
		}
		if len(texts) == 0 {
			size = ln.size
		}
		texts = append(texts, ln.text)
		if ln.bold {
			bold = true
		}
		lastY = ln.y
	}
	flush()
	return blocks
}

// pageText flattens the lines of a page for DOI and equation scanning.
func pageText(lines []line) string {
	parts := make([]string, 0, len(lines))
	for _, ln := range lines {
		parts = append(parts, ln.text)
	}
	return strings.Join(parts, "\n")
}
