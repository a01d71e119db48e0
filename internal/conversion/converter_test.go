package conversion_test

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"pdf-converter/internal/conversion"
	"pdf-converter/internal/docling"
	"pdf-converter/internal/storage"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPDF(t *testing.T, lines ...string) []byte {
	t.Helper()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(12)
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

// createZeroPagePDF builds a well-formed PDF whose page tree is empty. Such
// documents open fine but rasterize to nothing.
func createZeroPagePDF() []byte {
	return []byte("%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n" +
		"xref\n0 3\n" +
		"0000000000 65535 f \n" +
		"0000000009 00000 n \n" +
		"0000000058 00000 n \n" +
		"trailer\n<< /Size 3 /Root 1 0 R >>\n" +
		"startxref\n110\n%%EOF\n")
}

func createTestArea(t *testing.T, baseName string, contents []byte) *storage.Area {
	t.Helper()

	area, err := storage.NewArea(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, area.SaveDocument(baseName+".pdf", bytes.NewReader(contents)))
	return area
}

func TestParseTechnique(t *testing.T) {
	for _, name := range []string{
		"default", "easyocr", "tesseract", "easyocr_from_png",
		"default_docling_serve", "easyocr_docling_serve",
	} {
		technique, err := conversion.ParseTechnique(name)
		assert.NoError(t, err)
		assert.Equal(t, conversion.Technique(name), technique)
	}

	_, err := conversion.ParseTechnique("pdfminer")
	assert.ErrorContains(t, err, "unknown technique")
}

func TestThumbnail(t *testing.T) {
	area := createTestArea(t, "report", createTestPDF(t, "Quarterly Report"))

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	data, err := converter.Thumbnail("report")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, conversion.ThumbnailWidth, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 0)

	stored, err := area.ReadArtifact("report.png")
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestThumbnailUpscalesNarrowPages(t *testing.T) {
	pdf := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "mm", Size: fpdf.SizeType{Wd: 30, Ht: 40}})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 5, "tiny")

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	area := createTestArea(t, "tiny", buf.Bytes())

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	data, err := converter.Thumbnail("tiny")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, conversion.ThumbnailWidth, img.Bounds().Dx())
}

func TestThumbnailZeroPageDocument(t *testing.T) {
	area := createTestArea(t, "empty", createZeroPagePDF())

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	_, err = converter.Thumbnail("empty")
	assert.ErrorContains(t, err, "no pages")
	assert.False(t, area.HasArtifact("empty.png"))
}

func TestThumbnailMissingDocument(t *testing.T) {
	area, err := storage.NewArea(t.TempDir())
	require.NoError(t, err)

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	_, err = converter.Thumbnail("missing")
	assert.Error(t, err)
}

func TestThumbnailInvalidDocument(t *testing.T) {
	area := createTestArea(t, "broken", []byte("not a pdf"))

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	_, err = converter.Thumbnail("broken")
	assert.Error(t, err)
}

func TestMarkdownDefault(t *testing.T) {
	area := createTestArea(t, "report", createTestPDF(t, "Quarterly Report", "Revenue grew."))

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	text, err := converter.Markdown(context.Background(), "report", conversion.TechniqueDefault)
	require.NoError(t, err)
	assert.Contains(t, text, "Quarterly Report")
	assert.Contains(t, text, "Revenue grew.")

	stored, err := area.ReadArtifact("report.md")
	require.NoError(t, err)
	assert.Equal(t, text, string(stored))
}

func requireTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
}

func TestMarkdownEasyOCR(t *testing.T) {
	requireTesseract(t)

	area := createTestArea(t, "scan", createTestPDF(t, "SCANNED DOCUMENT"))

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	text, err := converter.Markdown(context.Background(), "scan", conversion.TechniqueEasyOCR)
	require.NoError(t, err)
	assert.Contains(t, text, "SCANNED")
	assert.True(t, area.HasArtifact("scan.md"))
}

func TestMarkdownTesseractCLI(t *testing.T) {
	requireTesseract(t)

	area := createTestArea(t, "scan", createTestPDF(t, "SCANNED DOCUMENT"))

	converter, err := conversion.NewConverter(area, nil, conversion.WithTesseractPath("tesseract"))
	require.NoError(t, err)

	text, err := converter.Markdown(context.Background(), "scan", conversion.TechniqueTesseract)
	require.NoError(t, err)
	assert.Contains(t, text, "SCANNED")
}

func TestMarkdownTesseractCLIMissingBinary(t *testing.T) {
	area := createTestArea(t, "scan", createTestPDF(t, "SCANNED DOCUMENT"))

	converter, err := conversion.NewConverter(area, nil, conversion.WithTesseractPath("no-such-binary"))
	require.NoError(t, err)

	_, err = converter.Markdown(context.Background(), "scan", conversion.TechniqueTesseract)
	assert.ErrorContains(t, err, "not found")
}

func TestMarkdownEasyOCRFromPNG(t *testing.T) {
	requireTesseract(t)

	area := createTestArea(t, "scan", createTestPDF(t, "SCANNED DOCUMENT"))

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	text, err := converter.Markdown(context.Background(), "scan", conversion.TechniqueEasyOCRFromPNG)
	require.NoError(t, err)
	assert.Contains(t, text, "SCANNED")

	// The intermediate page-1 PNG is persisted beside the upload.
	img, err := os.ReadFile(filepath.Join(area.Root(), "scan.pdf.png"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(img))
	assert.NoError(t, err)
}

func TestMarkdownEasyOCRFromPNGZeroPageDocument(t *testing.T) {
	// The page check fires before any OCR runs, so no engine is needed.
	area := createTestArea(t, "empty", createZeroPagePDF())

	converter, err := conversion.NewConverter(area, nil)
	require.NoError(t, err)

	_, err = converter.Markdown(context.Background(), "empty", conversion.TechniqueEasyOCRFromPNG)
	assert.ErrorContains(t, err, "no pages")
	assert.False(t, area.HasArtifact("empty.md"))
}

func TestMarkdownDoclingServe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"document": {"md_content": "# Remote Result", "json_content": {"pages": []}}}`)) //nolint:errcheck
	}))
	defer server.Close()

	area := createTestArea(t, "report", createTestPDF(t, "Quarterly Report"))

	converter, err := conversion.NewConverter(area, docling.NewClient(server.URL))
	require.NoError(t, err)

	text, err := converter.Markdown(context.Background(), "report", conversion.TechniqueDoclingServe)
	require.NoError(t, err)
	assert.Equal(t, "# Remote Result", text)

	stored, err := area.ReadArtifact("report_default_docling_serve.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages": []}`, string(stored))
}

func TestMarkdownDoclingServeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	area := createTestArea(t, "report", createTestPDF(t, "Quarterly Report"))

	converter, err := conversion.NewConverter(area, docling.NewClient(server.URL))
	require.NoError(t, err)

	_, err = converter.Markdown(context.Background(), "report", conversion.TechniqueDoclingServe)
	assert.Error(t, err)
	assert.False(t, area.HasArtifact("report.md"))
}
