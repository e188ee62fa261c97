package providers

import (
	"testing"
)

func TestDecodeLenient(t *testing.T) {
	type chapterList struct {
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
	}

	t.Run("fenced json decodes identically to plain", func(t *testing.T) {
		plain := `{"chapters": [{"title": "One"}]}`
		fenced := "```json\n" + plain + "\n```"

		var a, b chapterList
		if !DecodeLenient(nil, plain, &a) {
			t.Fatal("plain decode failed")
		}
		if !DecodeLenient(nil, fenced, &b) {
			t.Fatal("fenced decode failed")
		}
		if len(a.Chapters) != 1 || len(b.Chapters) != 1 || a.Chapters[0].Title != b.Chapters[0].Title {
			t.Errorf("fenced %+v != plain %+v", b, a)
		}
	})

	t.Run("fence without language tag", func(t *testing.T) {
		var v chapterList
		if !DecodeLenient(nil, "```\n{\"chapters\": []}\n```", &v) {
			t.Fatal("decode failed")
		}
	})

	t.Run("json embedded in prose", func(t *testing.T) {
		raw := `Sure! Here is the JSON you asked for:
{"chapters": [{"title": "Embedded"}]}
Hope that helps.`
		var v chapterList
		if !DecodeLenient(nil, raw, &v) {
			t.Fatal("decode failed")
		}
		if len(v.Chapters) != 1 || v.Chapters[0].Title != "Embedded" {
			t.Errorf("got %+v", v)
		}
	})

	t.Run("array output", func(t *testing.T) {
		var lines []struct {
			Host string `json:"host"`
		}
		if !DecodeLenient(nil, "```json\n[{\"host\": \"A\"}]\n```", &lines) {
			t.Fatal("decode failed")
		}
		if len(lines) != 1 || lines[0].Host != "A" {
			t.Errorf("got %+v", lines)
		}
	})

	t.Run("garbage keeps caller default", func(t *testing.T) {
		v := chapterList{Chapters: []struct {
			Title string `json:"title"`
		}{{Title: "fallback"}}}

		if DecodeLenient(nil, "not json at all", &v) {
			t.Error("expected decode failure")
		}
		if len(v.Chapters) != 1 || v.Chapters[0].Title != "fallback" {
			t.Errorf("default clobbered: %+v", v)
		}
	})

	t.Run("shape mismatch keeps caller default", func(t *testing.T) {
		var lines []struct {
			Host string `json:"host"`
		}
		if DecodeLenient(nil, `{"host": "A"}`, &lines) {
			t.Error("expected shape failure for object into slice")
		}
		if lines != nil {
			t.Errorf("default clobbered: %+v", lines)
		}
	})

	t.Run("empty output fails", func(t *testing.T) {
		var v chapterList
		if DecodeLenient(nil, "   ", &v) {
			t.Error("expected failure on empty output")
		}
	})
}
