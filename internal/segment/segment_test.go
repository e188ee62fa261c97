package segment

import (
	"strings"
	"testing"
)

func sizedBlocks(sizes ...float64) []block {
	blocks := make([]block, len(sizes))
	for i, s := range sizes {
		blocks[i] = block{page: 1, text: "x", fontSize: s}
	}
	return blocks
}

func TestHeadingThreshold(t *testing.T) {
	t.Run("top 15 percent of distinct sizes", func(t *testing.T) {
		got := headingThreshold(sizedBlocks(8, 10, 12, 12, 14, 16, 20))
		if got != 20 {
			t.Errorf("threshold = %v, want 20", got)
		}
	})

	t.Run("deterministic across orderings", func(t *testing.T) {
		a := headingThreshold(sizedBlocks(20, 8, 14, 12, 10, 16, 12))
		b := headingThreshold(sizedBlocks(8, 10, 12, 12, 14, 16, 20))
		if a != b {
			t.Errorf("threshold depends on block order: %v vs %v", a, b)
		}
	})

	t.Run("many distinct sizes picks below max", func(t *testing.T) {
		sizes := make([]float64, 0, 20)
		for i := 0; i < 20; i++ {
			sizes = append(sizes, float64(6+i))
		}
		got := headingThreshold(sizedBlocks(sizes...))
		// 20 distinct sizes, top-15% position = index 2 of descending order.
		if got != 23 {
			t.Errorf("threshold = %v, want 23", got)
		}
	})

	t.Run("no blocks falls back", func(t *testing.T) {
		if got := headingThreshold(nil); got != fallbackThreshold {
			t.Errorf("threshold = %v, want %v", got, fallbackThreshold)
		}
	})
}

func TestIsHeading(t *testing.T) {
	threshold := 16.0

	tests := []struct {
		name string
		b    block
		want bool
	}{
		{"large font", block{text: "Anything At All", fontSize: 18}, true},
		{"at threshold", block{text: "whatever", fontSize: 16}, true},
		{"vocabulary match", block{text: "Introduction", fontSize: 10}, true},
		{"numbered vocabulary", block{text: "3. Results", fontSize: 10}, true},
		{"case-insensitive vocabulary", block{text: "RELATED WORK", fontSize: 10}, true},
		{"bold short title case", block{text: "Threat Model", fontSize: 10, bold: true}, true},
		{"title case but not bold", block{text: "Threat Model", fontSize: 10}, false},
		{"bold but lowercase start", block{text: "threat model", fontSize: 10, bold: true}, false},
		{"bold but too long", block{
			text:     "The Quick Brown Fox Jumps Over The Lazy Dog And Keeps On Going For Quite A While Longer",
			fontSize: 10, bold: true,
		}, false},
		{"plain body text", block{text: "we observe that the model converges", fontSize: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHeading(tt.b, threshold); got != tt.want {
				t.Errorf("isHeading(%q) = %v, want %v", tt.b.text, got, tt.want)
			}
		})
	}
}

func TestBuildSections(t *testing.T) {
	t.Run("groups bodies under preceding heading", func(t *testing.T) {
		blocks := []block{
			{page: 1, text: "Some preamble text before any heading."},
			{page: 1, text: "Introduction", heading: true},
			{page: 1, text: "First intro paragraph."},
			{page: 2, text: "Second intro paragraph."},
			{page: 3, text: "Methods", heading: true},
			{page: 3, text: "We did things."},
		}
		tablePages := map[int]bool{2: true}
		eqPages := map[int]bool{3: true}

		sections := buildSections(blocks, tablePages, eqPages)
		if len(sections) != 3 {
			t.Fatalf("got %d sections, want 3", len(sections))
		}

		if sections[0].Title != "Preamble" {
			t.Errorf("first section title = %q, want Preamble", sections[0].Title)
		}

		intro := sections[1]
		if intro.Title != "Introduction" {
			t.Errorf("title = %q, want Introduction", intro.Title)
		}
		if intro.PageStart != 1 || intro.PageEnd != 3 {
			t.Errorf("intro pages = %d..%d, want 1..3", intro.PageStart, intro.PageEnd)
		}
		if !intro.HasTables {
			t.Error("intro should inherit table flag from page 2")
		}
		if intro.Body != "First intro paragraph. Second intro paragraph." {
			t.Errorf("unexpected intro body: %q", intro.Body)
		}

		methods := sections[2]
		if !methods.HasEquations {
			t.Error("methods should inherit equation flag from page 3")
		}
	})

	t.Run("page range invariant", func(t *testing.T) {
		blocks := []block{
			{page: 2, text: "Abstract", heading: true},
			{page: 2, text: "body"},
			{page: 5, text: "more body"},
		}
		for _, sec := range buildSections(blocks, nil, nil) {
			if sec.PageStart > sec.PageEnd {
				t.Errorf("section %q: page_start %d > page_end %d", sec.Title, sec.PageStart, sec.PageEnd)
			}
		}
	})

	t.Run("empty bodies dropped", func(t *testing.T) {
		blocks := []block{
			{page: 1, text: "Introduction", heading: true},
			{page: 1, text: "Methods", heading: true},
			{page: 1, text: "actual content"},
		}
		sections := buildSections(blocks, nil, nil)
		if len(sections) != 1 {
			t.Fatalf("got %d sections, want 1", len(sections))
		}
		if sections[0].Title != "Methods" {
			t.Errorf("title = %q, want Methods", sections[0].Title)
		}
	})

	t.Run("document without headings yields one section", func(t *testing.T) {
		blocks := []block{
			{page: 1, text: "just"},
			{page: 1, text: "plain"},
			{page: 2, text: "text"},
		}
		sections := buildSections(blocks, nil, nil)
		if len(sections) != 1 {
			t.Fatalf("got %d sections, want 1", len(sections))
		}
		if sections[0].Title != "Preamble" {
			t.Errorf("title = %q, want Preamble", sections[0].Title)
		}
	})

	t.Run("no blocks yields no sections", func(t *testing.T) {
		if sections := buildSections(nil, nil, nil); len(sections) != 0 {
			t.Errorf("got %d sections, want 0", len(sections))
		}
	})
}

func TestCleanHeading(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"3. Results", "Results"},
		{"12 Discussion", "Discussion"},
		{"  Conclusion  ", "Conclusion"},
		{"Introduction", "Introduction"},
	}
	for _, tt := range tests {
		if got := cleanHeading(tt.in); got != tt.want {
			t.Errorf("cleanHeading(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("y", 200)
	if got := cleanHeading(long); len(got) != 120 {
		t.Errorf("long heading capped to %d chars, want 120", len(got))
	}
}

func TestHasEquations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"three math symbols", "let α and β satisfy ∑", true},
		{"two math symbols only", "α and β appear here", false},
		{"latex command", `we use \frac{a}{b} here`, true},
		{"operator run", "E = mc^2 where c = 3e8", true},
		{"plain prose", "nothing mathematical here at all", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasEquations(tt.text); got != tt.want {
				t.Errorf("hasEquations(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasTableLayout(t *testing.T) {
	wideRow := func(y float64) line {
		return line{spans: []span{
			{text: "a", x: 0, w: 10, y: y},
			{text: "b", x: 100, w: 10, y: y},
			{text: "c", x: 200, w: 10, y: y},
		}}
	}

	t.Run("three multi-column rows", func(t *testing.T) {
		lines := []line{wideRow(700), wideRow(680), wideRow(660)}
		if !hasTableLayout(lines) {
			t.Error("expected table layout")
		}
	})

	t.Run("prose lines", func(t *testing.T) {
		lines := []line{
			{spans: []span{{text: "continuous", x: 0, w: 50}, {text: "prose", x: 52, w: 30}}},
			{spans: []span{{text: "more", x: 0, w: 30}, {text: "words", x: 32, w: 30}}},
		}
		if hasTableLayout(lines) {
			t.Error("prose should not be flagged as table")
		}
	})
}

func TestFindDOI(t *testing.T) {
	text := "Published in 2021.\ndoi: 10.1145/3442188.3445922\nmore text"
	if got := findDOI(text); got != "10.1145/3442188.3445922" {
		t.Errorf("findDOI = %q", got)
	}
	if got := findDOI("no identifier here, 10.12/short fails"); got != "" {
		t.Errorf("findDOI on non-DOI text = %q, want empty", got)
	}
}

func TestExtractYear(t *testing.T) {
	if got := extractYear("D:20210315120000Z"); got != "2021" {
		t.Errorf("extractYear = %q, want 2021", got)
	}
	if got := extractYear(""); got != "" {
		t.Errorf("extractYear on empty = %q, want empty", got)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"attention_is_all_you_need.pdf", "Attention Is All You Need"},
		{"deep-learning-survey.pdf", "Deep Learning Survey"},
		{"paper.pdf", "Paper"},
	}
	for _, tt := range tests {
		if got := titleFromFilename(tt.in); got != tt.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupBlocks(t *testing.T) {
	lines := []line{
		{text: "Big Heading", size: 18, y: 700},
		{text: "body text starts", size: 10, y: 680},
		{text: "and continues", size: 10, y: 668},
	}
	blocks := groupBlocks(lines, 4)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].text != "Big Heading" || blocks[0].fontSize != 18 {
		t.Errorf("unexpected first block: %+v", blocks[0])
	}
	if blocks[1].text != "body text starts and continues" {
		t.Errorf("unexpected merged body block: %q", blocks[1].text)
	}
	if blocks[1].page != 4 {
		t.Errorf("page = %d, want 4", blocks[1].page)
	}
}
