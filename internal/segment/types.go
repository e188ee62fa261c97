package segment

import "fmt"

// ParsedDocument is the structured result of a single-pass scan over a PDF.
// It is immutable after construction and owned by the pipeline run that
// created it.
type ParsedDocument struct {
	JobID      string            `json:"job_id"`
	Filename   string            `json:"filename"`
	TotalPages int               `json:"total_pages"`
	WordCount  int               `json:"word_count"`
	Sections   []ParsedSection   `json:"sections"`
	RawText    string            `json:"raw_text"`
	Metadata   map[string]string `json:"metadata"`
}

// Title returns the document title, falling back to the filename.
func (d *ParsedDocument) Title() string {
	if t := d.Metadata["title"]; t != "" {
		return t
	}
	return d.Filename
}

// Authors returns the document authors, falling back to "Unknown".
func (d *ParsedDocument) Authors() string {
	if a := d.Metadata["authors"]; a != "" {
		return a
	}
	return "Unknown"
}

// ParsedSection is one logical section of the document: the text between a
// heading and the next heading. Body is always non-empty; empty sections are
// dropped during assembly.
type ParsedSection struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	PageStart    int    `json:"page_start"`
	PageEnd      int    `json:"page_end"`
	HasTables    bool   `json:"has_tables"`
	HasEquations bool   `json:"has_equations"`
}

// ParseError indicates the source document could not be opened or read as a
// valid PDF. It is fatal for the job that submitted the document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse document %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
