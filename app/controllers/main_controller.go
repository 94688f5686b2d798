package controllers

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/voxnote/voxnote/internal/pkg/usercontext"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// renderedDoc caches one markdown document rendered to HTML. The docs are
// static files loaded once per process.
type renderedDoc struct {
	once sync.Once
	html template.HTML
	err  error
}

var docCache = map[string]*renderedDoc{
	"privacy": {},
	"terms":   {},
}

func loadDoc(name string) (template.HTML, error) {
	doc := docCache[name]
	doc.once.Do(func() {
		path := filepath.Join("docs", name+".md")
		raw, err := os.ReadFile(path)
		if err != nil {
			doc.err = err
			return
		}
		var buf bytes.Buffer
		if err := markdown.Convert(raw, &buf); err != nil {
			doc.err = err
			return
		}
		doc.html = template.HTML(buf.String())
	})
	return doc.html, doc.err
}

// HandleIndex serves the landing page.
func HandleIndex(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	return c.Render("index", fiber.Map{
		"Title":      "VoxNote",
		"IsLoggedIn": ctx.IsLoggedIn,
	})
}

// HandlePrivacy serves the privacy policy rendered from docs/privacy.md.
func HandlePrivacy(c *fiber.Ctx) error {
	return renderDoc(c, "privacy", "Privacy Policy")
}

// HandleTerms serves the terms of service rendered from docs/terms.md.
func HandleTerms(c *fiber.Ctx) error {
	return renderDoc(c, "terms", "Terms of Service")
}

func renderDoc(c *fiber.Ctx, name, title string) error {
	body, err := loadDoc(name)
	if err != nil {
		log.Printf("failed to load doc %s: %v", name, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "document not available",
		})
	}
	return c.Render("docs", fiber.Map{
		"Title": title,
		"Body":  body,
	})
}
