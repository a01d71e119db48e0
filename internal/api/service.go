package api

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"pdf-converter/internal/conversion"
	"pdf-converter/internal/storage"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Service struct {
	area      *storage.Area
	converter *conversion.Converter
}

func NewService(area *storage.Area, converter *conversion.Converter) *Service {
	return &Service{area: area, converter: converter}
}

func (s *Service) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Get("/", FileHandler(s.UploadForm))
	r.Post("/upload", FileHandler(s.Upload))
	r.Get("/converted/{base_name}", FileHandler(s.Converted))
	r.Get("/docling_json/{base_name}/{technique}", FileHandler(s.DoclingJSON))
	r.Get("/editor/{base_name}/{technique}", FileHandler(s.Editor))
}

func (s *Service) UploadForm(r *http.Request) (*Response, error) {
	return renderTemplate("index.html", nil)
}

func (s *Service) Upload(r *http.Request) (*Response, error) {
	file, header, err := r.FormFile("document")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing 'document' file field")
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "no file selected")
	}

	ext := filepath.Ext(header.Filename)
	if !strings.EqualFold(ext, ".pdf") {
		return nil, CodedErrorf(http.StatusBadRequest, "only .pdf files are supported, got '%s'", ext)
	}

	baseName := storage.SanitizeFileName(strings.TrimSuffix(header.Filename, ext))
	if baseName == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "invalid filename '%s'", header.Filename)
	}
	filename := baseName + ".pdf"

	if err := s.area.SaveDocument(filename, file); err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	slog.Info("saved upload", "filename", filename, "path", s.area.DocumentPath(baseName))

	return renderTemplate("uploaded.html", map[string]string{
		"Filename": filename,
		"BaseName": baseName,
	})
}

type convertParams struct {
	Format    string `schema:"format"`
	Render    bool   `schema:"render"`
	Technique string `schema:"technique"`
}

func (s *Service) Converted(r *http.Request) (*Response, error) {
	params, err := ParseRequestQueryParams[convertParams](r)
	if err != nil {
		return nil, err
	}
	if params.Format == "" {
		params.Format = "png"
	}
	if params.Technique == "" {
		params.Technique = string(conversion.TechniqueDefault)
	}

	if params.Format != "png" && params.Format != "markdown" {
		return nil, CodedErrorf(http.StatusBadRequest, "unsupported format '%s'", params.Format)
	}

	baseName := storage.SanitizeFileName(chi.URLParam(r, "base_name"))
	if !s.area.HasDocument(baseName) {
		return nil, CodedErrorf(http.StatusNotFound, "no document found for '%s'", baseName)
	}

	switch params.Format {
	case "png":
		img, err := s.converter.Thumbnail(baseName)
		if err != nil {
			return nil, CodedError(http.StatusInternalServerError, err)
		}
		return &Response{ContentType: "image/png", Body: img}, nil

	case "markdown":
		technique, err := conversion.ParseTechnique(params.Technique)
		if err != nil {
			return nil, CodedError(http.StatusBadRequest, err)
		}

		text, err := s.converter.Markdown(r.Context(), baseName, technique)
		if err != nil {
			return nil, CodedError(http.StatusInternalServerError, err)
		}

		if params.Render {
			content, err := conversion.RenderHTML(text)
			if err != nil {
				return nil, CodedError(http.StatusInternalServerError, err)
			}
			return renderTemplate("rendered.html", map[string]any{
				"BaseName": baseName,
				"Content":  template.HTML(content), //nolint:gosec // rendered from our own conversion output
			})
		}

		return &Response{ContentType: "text/plain; charset=utf-8", Body: []byte(text)}, nil
	}

	return nil, CodedErrorf(http.StatusBadRequest, "unsupported format '%s'", params.Format)
}

func (s *Service) doclingArtifact(r *http.Request) (string, string, []byte, error) {
	baseName := storage.SanitizeFileName(chi.URLParam(r, "base_name"))
	technique := storage.SanitizeFileName(chi.URLParam(r, "technique"))

	name := fmt.Sprintf("%s_%s.json", baseName, technique)
	if !s.area.HasArtifact(name) {
		return "", "", nil, CodedErrorf(http.StatusNotFound, "no converted document found for '%s' with technique '%s'", baseName, technique)
	}

	data, err := s.area.ReadArtifact(name)
	if err != nil {
		return "", "", nil, CodedError(http.StatusInternalServerError, err)
	}

	return baseName, technique, data, nil
}

func (s *Service) DoclingJSON(r *http.Request) (*Response, error) {
	_, _, data, err := s.doclingArtifact(r)
	if err != nil {
		return nil, err
	}
	return &Response{ContentType: "application/json", Body: data}, nil
}

func (s *Service) Editor(r *http.Request) (*Response, error) {
	baseName, technique, data, err := s.doclingArtifact(r)
	if err != nil {
		return nil, err
	}

	return renderTemplate("editor.html", map[string]string{
		"BaseName":  baseName,
		"Technique": technique,
		"JSON":      string(data),
	})
}
