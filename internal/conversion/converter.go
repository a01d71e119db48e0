package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"pdf-converter/internal/docling"
	"pdf-converter/internal/storage"

	"github.com/gen2brain/go-fitz"
)

// Technique names a conversion pathway. The names are part of the HTTP
// contract and are chosen by the caller per request.
type Technique string

const (
	TechniqueDefault             Technique = "default"
	TechniqueEasyOCR             Technique = "easyocr"
	TechniqueTesseract           Technique = "tesseract"
	TechniqueEasyOCRFromPNG      Technique = "easyocr_from_png"
	TechniqueDoclingServe        Technique = "default_docling_serve"
	TechniqueEasyOCRDoclingServe Technique = "easyocr_docling_serve"
)

// ParseTechnique validates a caller-supplied technique name.
func ParseTechnique(name string) (Technique, error) {
	switch t := Technique(name); t {
	case TechniqueDefault, TechniqueEasyOCR, TechniqueTesseract,
		TechniqueEasyOCRFromPNG, TechniqueDoclingServe, TechniqueEasyOCRDoclingServe:
		return t, nil
	default:
		return "", fmt.Errorf("unknown technique '%s'", name)
	}
}

// Converter produces derived artifacts from uploaded documents. Every call
// regenerates its artifact in full; nothing checks freshness against the
// source document, and concurrent requests for the same base name may race
// on the shared output file.
type Converter struct {
	area          *storage.Area
	docling       *docling.Client
	profiles      map[Technique]Profile
	tesseractPath string
}

type Option func(*Converter)

// WithTesseractPath sets the binary used by the tesseract CLI technique.
func WithTesseractPath(path string) Option {
	return func(c *Converter) { c.tesseractPath = path }
}

// WithOCRLanguages overrides the language packs of every OCR profile.
func WithOCRLanguages(languages []string) Option {
	return func(c *Converter) {
		for t, p := range c.profiles {
			p.Languages = languages
			c.profiles[t] = p
		}
	}
}

func NewConverter(area *storage.Area, doclingClient *docling.Client, opts ...Option) (*Converter, error) {
	profiles, err := loadProfiles()
	if err != nil {
		return nil, err
	}

	c := &Converter{
		area:          area,
		docling:       doclingClient,
		profiles:      profiles,
		tesseractPath: "tesseract",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Thumbnail rasterizes the first page of a document into a bounded-width PNG,
// stores it as <base_name>.png in the output area, and returns the bytes.
func (c *Converter) Thumbnail(baseName string) ([]byte, error) {
	contents, err := c.area.ReadDocument(baseName)
	if err != nil {
		return nil, err
	}

	img, err := thumbnail(contents, ThumbnailWidth)
	if err != nil {
		return nil, err
	}

	if err := c.area.WriteArtifact(baseName+".png", img); err != nil {
		return nil, err
	}

	slog.Info("generated thumbnail", "base_name", baseName, "bytes", len(img))
	return img, nil
}

// Markdown runs one technique against a document, stores the result as
// <base_name>.md in the output area, and returns the text. The docling-serve
// techniques additionally persist the structured-document JSON as
// <base_name>_<technique>.json.
func (c *Converter) Markdown(ctx context.Context, baseName string, technique Technique) (string, error) {
	contents, err := c.area.ReadDocument(baseName)
	if err != nil {
		return "", err
	}

	var text string
	switch technique {
	case TechniqueDefault:
		text, err = extractMarkdown(contents)
	case TechniqueEasyOCR:
		text, err = ocrMarkdown(contents, c.profiles[technique])
	case TechniqueTesseract:
		text, err = tesseractCLIMarkdown(ctx, c.tesseractPath, contents, c.profiles[technique])
	case TechniqueEasyOCRFromPNG:
		text, err = c.ocrFromPNG(baseName, contents)
	case TechniqueDoclingServe:
		text, err = c.doclingMarkdown(ctx, baseName, technique, contents, docling.Options{})
	case TechniqueEasyOCRDoclingServe:
		text, err = c.doclingMarkdown(ctx, baseName, technique, contents, docling.Options{
			ForceOCR:  true,
			OCREngine: "easyocr",
			OCRLang:   "en",
		})
	default:
		return "", fmt.Errorf("unknown technique '%s'", technique)
	}
	if err != nil {
		return "", err
	}

	if err := c.area.WriteArtifact(baseName+".md", []byte(text)); err != nil {
		return "", err
	}

	slog.Info("converted document to markdown", "base_name", baseName, "technique", technique)
	return text, nil
}

// ocrFromPNG rasterizes the first page to a full-size PNG beside the upload,
// then runs the in-process OCR pipeline against the image instead of the PDF.
func (c *Converter) ocrFromPNG(baseName string, contents []byte) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", errNoPages
	}

	profile := c.profiles[TechniqueEasyOCRFromPNG]

	img, err := renderPage(doc, 0, float64(profile.DPI))
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(c.area.UploadPath(baseName+".pdf.png"), img, 0644); err != nil {
		return "", fmt.Errorf("error writing intermediate png: %w", err)
	}

	return ocrImageMarkdown(img, profile)
}

func (c *Converter) doclingMarkdown(ctx context.Context, baseName string, technique Technique, contents []byte, opts docling.Options) (string, error) {
	res, err := c.docling.Convert(ctx, baseName+".pdf", contents, opts)
	if err != nil {
		return "", err
	}

	if err := c.area.WriteArtifact(fmt.Sprintf("%s_%s.json", baseName, technique), res.JSON); err != nil {
		return "", err
	}

	return res.Markdown, nil
}
