package segment

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

var separatorRE = regexp.MustCompile(`[\-_]+`)

// metadata derives top-level document metadata from the PDF Info dictionary,
// with filename-based fallbacks.
func (s *Segmenter) metadata(reader *pdf.Reader, path, doi string) map[string]string {
	info := infoDict(reader)

	title := strings.TrimSpace(infoString(info, "Title"))
	if title == "" {
		title = titleFromFilename(path)
	}
	authors := strings.TrimSpace(infoString(info, "Author"))
	if authors == "" {
		authors = "Unknown"
	}

	return map[string]string{
		"title":    title,
		"authors":  authors,
		"year":     extractYear(infoString(info, "CreationDate")),
		"doi":      doi,
		"subject":  strings.TrimSpace(infoString(info, "Subject")),
		"keywords": strings.TrimSpace(infoString(info, "Keywords")),
	}
}

// infoDict fetches the trailer Info dictionary. Malformed trailers panic
// inside the pdf package; degrade to a null value.
func infoDict(reader *pdf.Reader) (v pdf.Value) {
	defer func() {
		if r := recover(); r != nil {
			v = pdf.Value{}
		}
	}()
	return reader.Trailer().Key("Info")
}

func infoString(info pdf.Value, key string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = ""
		}
	}()
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return v.Text()
}

// titleFromFilename guesses a title from the file name: separators become
// spaces and each word is capitalized.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = separatorRE.ReplaceAllString(name, " ")

	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
