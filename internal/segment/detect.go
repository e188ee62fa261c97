package segment

import (
	"regexp"
	"sort"
	"strings"
)

// headingRE matches the common academic section-heading vocabulary,
// optionally prefixed with a section number.
var headingRE = regexp.MustCompile(`(?i)^(\d+\.?\s+)?(` +
	`abstract|introduction|background|related work|literature review|` +
	`methodology|methods?|experimental setup|experiments?|results?|` +
	`evaluation|discussion|conclusion|future work|references|appendix|` +
	`acknowledgements?` +
	`)(\s*\d*\.?\d*)?$`)

// titleCaseRE matches short title-cased lines that likely name a custom section.
var titleCaseRE = regexp.MustCompile(`^[A-Z][A-Za-z\s\-:]{3,60}$`)

// doiRE matches a DOI-shaped token.
var doiRE = regexp.MustCompile(`10\.\d{4,}/\S+`)

// equationRE matches inline operator runs and LaTeX-style commands.
var equationRE = regexp.MustCompile(`[=\+\-\*/\^].*[=\+\-\*/\^]|\\[a-z]+\{`)

var leadingNumberRE = regexp.MustCompile(`^\d+\.?\s*`)

var yearRE = regexp.MustCompile(`\d{4}`)

// mathSymbols are reserved Unicode math characters whose presence signals
// equation content.
const mathSymbols = "∑∫∂∇≈≠≤≥αβγδεζηθλμνξπρστφψωΩΓΔΘΛΞΠΣΦΨ∈∉⊂⊃∀∃"

const (
	// fallbackThreshold is used when a document yields no text blocks.
	fallbackThreshold = 14.0
	// headingSizeQuantile selects the top share of distinct font sizes
	// treated as heading-sized.
	headingSizeQuantile = 0.15
	// minMathSymbols is the symbol count above which a page is flagged.
	minMathSymbols = 3
	// columnGapWidth is the horizontal whitespace run that separates table
	// columns, in points.
	columnGapWidth = 12.0
	// minTableRows is how many multi-column lines flag a page as tabular.
	minTableRows = 3
)

// headingThreshold computes the per-document font-size cutoff for headings:
// the value at the top-15% position of the distinct sizes, sorted descending.
func headingThreshold(blocks []block) float64 {
	distinct := make(map[float64]struct{}, len(blocks))
	for _, b := range blocks {
		distinct[b.fontSize] = struct{}{}
	}
	if len(distinct) == 0 {
		return fallbackThreshold
	}

	sizes := make([]float64, 0, len(distinct))
	for s := range distinct {
		sizes = append(sizes, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	idx := int(float64(len(sizes))*headingSizeQuantile) - 1
	if idx < 0 {
		idx = 0
	}
	return sizes[idx]
}

// isHeading classifies a block: heading-sized font, known section vocabulary,
// or a short bold title-cased line.
func isHeading(b block, threshold float64) bool {
	text := strings.TrimSpace(b.text)
	if b.fontSize >= threshold {
		return true
	}
	if headingRE.MatchString(text) {
		return true
	}
	return b.bold && titleCaseRE.MatchString(text) && len(text) < 80
}

// hasEquations reports whether page text contains mathematical notation.
func hasEquations(text string) bool {
	count := 0
	for _, r := range text {
		if strings.ContainsRune(mathSymbols, r) {
			count++
			if count >= minMathSymbols {
				return true
			}
		}
	}
	return equationRE.MatchString(text)
}

// hasTableLayout flags a page whose lines show repeated multi-column
// alignment. This is a layout heuristic over positioned text; it errs toward
// false negatives.
func hasTableLayout(lines []line) bool {
	rows := 0
	for _, ln := range lines {
		if columnGaps(ln) >= 2 {
			rows++
			if rows >= minTableRows {
				return true
			}
		}
	}
	return false
}

func columnGaps(ln line) int {
	gaps := 0
	for i := 1; i < len(ln.spans); i++ {
		prev := ln.spans[i-1]
		if ln.spans[i].x-(prev.x+prev.w) > columnGapWidth {
			gaps++
		}
	}
	return gaps
}

// findDOI returns the first DOI-shaped token in text, or "".
func findDOI(text string) string {
	return doiRE.FindString(text)
}

// extractYear pulls the first 4-digit run out of a PDF date string
// (typically "D:YYYYMMDD...").
func extractYear(dateStr string) string {
	return yearRE.FindString(dateStr)
}

// cleanHeading normalizes heading text: strips leading section numbers and
// caps the length.
func cleanHeading(text string) string {
	text = strings.TrimSpace(leadingNumberRE.ReplaceAllString(text, ""))
	if len(text) > 120 {
		text = text[:120]
	}
	return text
}
