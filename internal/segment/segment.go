// Package segment turns an academic PDF into an ordered list of titled
// sections using heuristic layout analysis: a per-document heading font-size
// threshold, an academic heading vocabulary, and per-page table/equation
// detection.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Segmenter performs single-pass document segmentation.
type Segmenter struct {
	logger *slog.Logger
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{logger: logger}
}

// Segment opens the PDF at path once and scans it front to back, producing a
// ParsedDocument. It fails with a *ParseError if the file cannot be opened as
// a valid PDF. Table and equation detection failures on a single page degrade
// to "not detected" for that page only.
func (s *Segmenter) Segment(ctx context.Context, path, jobID string) (*ParsedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	totalPages, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("page count: %w", err)}
	}

	pf, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer pf.Close()

	s.logger.Info("starting document scan", "job_id", jobID, "file", filepath.Base(path), "pages", totalPages)

	var blocks []block
	tablePages := make(map[int]bool)
	eqPages := make(map[int]bool)
	doi := ""

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		lines := extractLines(page)
		blocks = append(blocks, groupBlocks(lines, pageNum)...)

		text := pageText(lines)
		if hasTableLayout(lines) {
			tablePages[pageNum] = true
		}
		if hasEquations(text) {
			eqPages[pageNum] = true
		}
		if pageNum <= 2 && doi == "" {
			doi = findDOI(text)
		}
	}

	threshold := headingThreshold(blocks)
	for i := range blocks {
		blocks[i].heading = isHeading(blocks[i], threshold)
	}

	sections := buildSections(blocks, tablePages, eqPages)

	bodies := make([]string, len(sections))
	for i, sec := range sections {
		bodies[i] = sec.Body
	}
	rawText := strings.Join(bodies, "\n\n")

	doc := &ParsedDocument{
		JobID:      jobID,
		Filename:   filepath.Base(path),
		TotalPages: totalPages,
		WordCount:  len(strings.Fields(rawText)),
		Sections:   sections,
		RawText:    rawText,
		Metadata:   s.metadata(reader, path, doi),
	}

	s.logger.Info("document scan complete", "job_id", jobID,
		"sections", len(sections), "words", doc.WordCount,
		"table_pages", len(tablePages), "equation_pages", len(eqPages),
		"heading_threshold", threshold)

	return doc, nil
}

// buildSections walks blocks in order, accumulating non-heading blocks into
// the current section and flushing on each heading. The text before the first
// heading becomes a "Preamble" section. Sections with empty bodies are
// discarded.
func buildSections(blocks []block, tablePages, eqPages map[int]bool) []ParsedSection {
	var sections []ParsedSection

	title := "Preamble"
	var body []string
	start := 1
	if len(blocks) > 0 {
		start = blocks[0].page
	}
	pages := make(map[int]bool)

	// An empty flush (consecutive headings) keeps the touched-page set so the
	// pages still count toward the next emitted section's range and flags.
	flush := func() {
		joined := strings.TrimSpace(strings.Join(body, " "))
		body = body[:0]
		if joined == "" {
			return
		}
		touched := sortedKeys(pages)
		end := start
		if len(touched) > 0 {
			end = touched[len(touched)-1]
		}
		sections = append(sections, ParsedSection{
			Title:        title,
			Body:         joined,
			PageStart:    start,
			PageEnd:      end,
			HasTables:    anyFlagged(touched, tablePages),
			HasEquations: anyFlagged(touched, eqPages),
		})
		pages = make(map[int]bool)
	}

	for _, b := range blocks {
		pages[b.page] = true
		if b.heading {
			flush()
			title = cleanHeading(b.text)
			start = b.page
		} else {
			body = append(body, b.text)
		}
	}
	flush()

	return sections
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func anyFlagged(pages []int, flagged map[int]bool) bool {
	for _, p := range pages {
		if flagged[p] {
			return true
		}
	}
	return false
}
