package export

import (
	"github.com/microcosm-cc/bluemonday"
)

// StyleBlock is prepended to every exported document after sanitizing, so
// user content can never smuggle style rules past the policy.
const StyleBlock = `<style>
  body { font-family: Helvetica, Arial, sans-serif; line-height: 1.4; }
  h1   { font-size: 32px; margin: 0 0 24px; }
  h2   { font-size: 20px; margin: 24px 0 12px; }
  ul   { margin: 0 0 12px 28px; padding: 0; }
  li   { margin: 6px 0; }
  strong { font-weight: 600; }
</style>
`

var notePolicy = buildNotePolicy()

func buildNotePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "p", "br", "ul", "ol", "li",
		"strong", "em", "b", "i", "u", "blockquote", "span", "div",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AllowAttrs("style").Globally()
	return p
}

// SanitizeNoteHTML strips everything outside the note markup allowlist and
// prepends the export style block.
func SanitizeNoteHTML(html string) string {
	return StyleBlock + notePolicy.Sanitize(html)
}
