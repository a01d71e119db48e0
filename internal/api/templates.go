package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderTemplate(name string, data any) (*Response, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("error rendering template %s: %w", name, err)
	}
	return &Response{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}
