package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ecttool/internal/errors"
)

//go:embed content/*.md templates/page.html
var embeddedFiles embed.FS

// pageRenderer holds the markdown pages rendered once at startup
type pageRenderer struct {
	layout *template.Template
	bodies map[string]template.HTML
}

type pageData struct {
	Title    string
	Body     template.HTML
	Patients int
}

func newPageRenderer() (*pageRenderer, error) {
	layout, err := template.ParseFS(embeddedFiles, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	r := &pageRenderer{layout: layout, bodies: make(map[string]template.HTML)}
	for _, name := range []string{"home", "cite_us"} {
		md, err := embeddedFiles.ReadFile("content/" + name + ".md")
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		r.bodies[name] = template.HTML(renderMarkdown(md))
	}
	return r, nil
}

// renderMarkdown converts embedded page content to HTML. The parser keeps
// state, so each document gets a fresh one.
func renderMarkdown(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML(md, p, renderer)
}

// renderPage renders to a buffer first so a template error never leaves a
// half-written response
func (s *Server) renderPage(c *gin.Context, name, title string) {
	data := pageData{Title: title, Body: s.pages.bodies[name]}
	if s.cohort != nil {
		data.Patients = s.cohort.Len()
	}
	var buf bytes.Buffer
	if err := s.pages.layout.Execute(&buf, data); err != nil {
		s.respondError(c, errors.Wrapf(err, "failed to render %s page", name))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleHome(c *gin.Context) {
	s.renderPage(c, "home", "Home")
}

func (s *Server) handleCiteUs(c *gin.Context) {
	s.renderPage(c, "cite_us", "Cite us")
}
