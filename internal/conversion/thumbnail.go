package conversion

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// ThumbnailWidth bounds the rendered preview; height scales proportionally.
const ThumbnailWidth = 600

var errNoPages = fmt.Errorf("document has no pages")

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPage rasterizes a single page to PNG at the given DPI.
func renderPage(doc *fitz.Document, page int, dpi float64) ([]byte, error) {
	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("error rasterizing page %d: %w", page, err)
	}
	return encodePNG(img)
}

// thumbnail rasterizes the first page of a PDF and scales it to exactly
// width pixels wide, height proportional. Narrow pages are upscaled.
func thumbnail(contents []byte, width int) ([]byte, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return nil, fmt.Errorf("error opening document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errNoPages
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("error rasterizing page 0: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != width {
		height := bounds.Dy() * width / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	return encodePNG(img)
}
