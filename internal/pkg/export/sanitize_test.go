package export

import (
	"strings"
	"testing"
)

func TestSanitizeNoteHTML_KeepsNoteMarkup(t *testing.T) {
	in := `<h1>Lecture 4</h1><ul><li><strong>Key term</strong></li></ul>`
	out := SanitizeNoteHTML(in)

	if !strings.HasPrefix(out, StyleBlock) {
		t.Fatalf("output must start with the export style block")
	}
	body := strings.TrimPrefix(out, StyleBlock)
	if body != in {
		t.Fatalf("allowed markup was altered: %q", body)
	}
}

func TestSanitizeNoteHTML_StripsScripts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		deny string
	}{
		{"script tag", `<p>ok</p><script>alert(1)</script>`, "<script"},
		{"event handler", `<p onclick="steal()">ok</p>`, "onclick"},
		{"iframe", `<iframe src="https://evil.example"></iframe>`, "<iframe"},
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, "javascript:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeNoteHTML(tt.in)
			if strings.Contains(out, tt.deny) {
				t.Fatalf("sanitized output still contains %q: %q", tt.deny, out)
			}
		})
	}
}

func TestSanitizeNoteHTML_UserStyleCannotPrecedeBlock(t *testing.T) {
	in := `<style>body { display: none; }</style><p>note</p>`
	out := SanitizeNoteHTML(in)

	if !strings.HasPrefix(out, StyleBlock) {
		t.Fatalf("style block must come first regardless of input")
	}
	if strings.Contains(strings.TrimPrefix(out, StyleBlock), "display: none") {
		t.Fatalf("user style element survived sanitizing")
	}
}
