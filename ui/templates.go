package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// pages are parsed one set each on top of the shared layout
var pages = []string{"raw", "filter", "summary", "graphs", "error"}

var funcMap = template.FuncMap{
	"fmtFloat": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcMap).ParseFS(fsys, "templates/layout.html", "templates/table.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		t, err := clone.ParseFS(fsys, path.Join("templates", name+".html"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// renderTemplate executes a page into a buffer first so a template error
// never leaves a half-written response
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		s.logger.Error("unknown template", "template", name)
		c.String(500, "template not found")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("template error", "template", name, "data_type", fmt.Sprintf("%T", data), "error", err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// renderMarkdown converts the about panel to HTML. The source is embedded,
// so its output is trusted.
func renderMarkdown(src []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(src, p, r))
}

// formatNumber prints a statistic the way describe() tables usually do
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}
