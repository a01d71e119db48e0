package conversion

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// ocrImageMarkdown runs the in-process OCR engine against a single rasterized
// page and converts the recognized layout (hOCR) to markdown.
func ocrImageMarkdown(imgData []byte, profile Profile) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(profile.Languages) > 0 {
		if err := client.SetLanguage(profile.Languages...); err != nil {
			return "", fmt.Errorf("error setting ocr languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(profile.PageSegMode)); err != nil {
		return "", fmt.Errorf("error setting page segmentation mode: %w", err)
	}
	if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(profile.DPI)); err != nil {
		return "", fmt.Errorf("error setting ocr dpi: %w", err)
	}
	if err := client.SetImageFromBytes(imgData); err != nil {
		return "", fmt.Errorf("error loading image for ocr: %w", err)
	}

	hocr, err := client.HOCRText()
	if err != nil {
		return "", fmt.Errorf("error recognizing text: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(hocr)
	if err != nil {
		return "", fmt.Errorf("error converting ocr output to markdown: %w", err)
	}

	return stripInlineImages(text), nil
}

// ocrMarkdown forces full-page OCR on every page of a PDF, ignoring any text
// layer the document already has.
func ocrMarkdown(contents []byte, profile Profile) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening document: %w", err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		img, err := renderPage(doc, i, float64(profile.DPI))
		if err != nil {
			return "", err
		}

		text, err := ocrImageMarkdown(img, profile)
		if err != nil {
			return "", fmt.Errorf("error running ocr on page %d: %w", i, err)
		}

		pages = append(pages, text)
	}

	return strings.Join(pages, "\n\n") + "\n", nil
}
