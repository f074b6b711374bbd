package views

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/net/html"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

var sample = types.Reading{
	Datetime: "2024-01-01T00:00:00Z",
	Location: "Site A",
	PM1:      1.2,
	PM25:     3.4,
	PM10:     5.6,
}

func mustRenderer(t *testing.T) *Renderer {
	t.Helper()
	rn, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() = %v; want nil", err)
	}
	return rn
}

func TestNewRenderer_success(t *testing.T) {
	rn := mustRenderer(t)
	if rn.tmpl == nil {
		t.Fatal("NewRenderer() left tmpl nil")
	}
}

func TestLoadFromFS_failure_sub(t *testing.T) {
	// Empty FS has no "templates" directory; ParseFS matches nothing.
	if _, err := loadFromFS(fstest.MapFS{}, "templates"); err == nil {
		t.Fatal("loadFromFS(emptyFS) = nil; want error")
	}
}

func TestLoadFromFS_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/status.html": {Data: []byte("{{ .")},
	}
	if _, err := loadFromFS(badFS, "templates"); err == nil {
		t.Fatal("loadFromFS(badFS) = nil; want error")
	}
}

func TestLoadFromFS_failure_missingStatus(t *testing.T) {
	otherFS := fstest.MapFS{
		"templates/other.html": {Data: []byte("<p>{{ .Location }}</p>")},
	}
	if _, err := loadFromFS(otherFS, "templates"); err == nil {
		t.Fatal("loadFromFS(without status.html) = nil; want error")
	}
}

func TestRender_containsReading(t *testing.T) {
	out, err := mustRenderer(t).Render(sample)
	if err != nil {
		t.Fatalf("Render() = %v; want nil", err)
	}
	doc := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<style>",
		"<title>Air Quality Station</title>",
		"<h1>Air Quality Station</h1>",
		"<svg",
		"2024-01-01T00:00:00Z",
		"Site A",
		">1.2<",
		">3.4<",
		">5.6<",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(doc, "<link") || strings.Contains(doc, "<script") {
		t.Error("output references external resources; want self-contained document")
	}
	if n := strings.Count(doc, "<tr>"); n != 2 {
		t.Errorf("table rows = %d; want header row plus one data row", n)
	}
}

func TestRender_deterministic(t *testing.T) {
	rn := mustRenderer(t)
	first, err := rn.Render(sample)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := rn.Render(sample)
		if err != nil {
			t.Fatalf("Render() = %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Render() call %d differs from first call", i+2)
		}
	}

	other, err := mustRenderer(t).Render(sample)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if !bytes.Equal(first, other) {
		t.Fatal("separate renderers produced different output for the same reading")
	}
}

func TestRender_numbers(t *testing.T) {
	r := sample
	r.PM1 = 0
	r.PM25 = 12
	r.PM10 = 0.000125

	out, err := mustRenderer(t).Render(r)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	for _, want := range []string{">0<", ">12<", ">0.000125<"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output missing %q", want)
		}
	}
}

// cellTexts walks the document and returns the text of every <td>, failing if
// the markup contains tags the template never emits.
func cellTexts(t *testing.T, doc []byte) []string {
	t.Helper()
	allowed := map[string]bool{
		"html": true, "head": true, "meta": true, "title": true, "style": true,
		"body": true, "main": true, "header": true, "svg": true, "circle": true,
		"path": true, "h1": true, "p": true, "table": true, "thead": true,
		"tbody": true, "tr": true, "th": true, "td": true, "footer": true,
	}

	var (
		cells  []string
		inCell bool
		cur    strings.Builder
	)
	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				t.Fatalf("tokenize: %v", z.Err())
			}
			return cells
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if !allowed[string(name)] {
				t.Fatalf("unexpected element <%s> in rendered page", name)
			}
			if string(name) == "td" {
				inCell = true
				cur.Reset()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "td" && inCell {
				cells = append(cells, cur.String())
				inCell = false
			}
		case html.TextToken:
			if inCell {
				cur.Write(z.Text())
			}
		}
	}
}

func TestRender_escapesMarkup(t *testing.T) {
	r := types.Reading{
		Datetime: `2024-01-01</td></tr></table><script>alert(1)</script>`,
		Location: `<b>Halifax & "Dartmouth"</b> 'west' >`,
		PM1:      1,
		PM25:     2,
		PM10:     3,
	}

	out, err := mustRenderer(t).Render(r)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if bytes.Contains(out, []byte("<script>")) || bytes.Contains(out, []byte("<b>")) {
		t.Fatalf("raw markup leaked into output:\n%s", out)
	}

	cells := cellTexts(t, out)
	want := []string{r.Datetime, r.Location, "1", "2", "3"}
	if len(cells) != len(want) {
		t.Fatalf("cells = %q; want %d cells", cells, len(want))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell[%d] = %q; want %q", i, cells[i], want[i])
		}
	}
}
