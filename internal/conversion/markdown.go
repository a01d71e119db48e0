package conversion

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gen2brain/go-fitz"
)

// Base64 images embedded by the HTML extraction, in the format
// ![](data:image/...). They dwarf the surrounding text, so they are stripped
// from the markdown output.
var inlineImagePattern = regexp.MustCompile(`!\[\]\(data:image/[^)]+\)`)

func stripInlineImages(content string) string {
	return inlineImagePattern.ReplaceAllString(content, "")
}

// extractMarkdown converts a PDF to markdown using the text and layout
// already present in the document, without OCR.
func extractMarkdown(contents []byte) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening document: %w", err)
	}
	defer doc.Close()

	converter := md.NewConverter("", true, nil)

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		html, err := doc.HTML(i, true)
		if err != nil {
			return "", fmt.Errorf("error extracting page %d: %w", i, err)
		}

		text, err := converter.ConvertString(html)
		if err != nil {
			return "", fmt.Errorf("error converting page %d to markdown: %w", i, err)
		}

		pages = append(pages, stripInlineImages(text))
	}

	return strings.Join(pages, "\n\n") + "\n", nil
}
