package conversion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// tesseractCLIMarkdown forces full-page OCR through the tesseract binary
// rather than the in-process engine. Each page is rasterized to a temp PNG
// and fed to the CLI individually.
func tesseractCLIMarkdown(ctx context.Context, binary string, contents []byte, profile Profile) (string, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return "", fmt.Errorf("tesseract binary %q not found: %w", binary, err)
	}

	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening document: %w", err)
	}
	defer doc.Close()

	workDir, err := os.MkdirTemp("", "tesseract-pages-*")
	if err != nil {
		return "", fmt.Errorf("error creating ocr work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		img, err := renderPage(doc, i, float64(profile.DPI))
		if err != nil {
			return "", err
		}

		pagePath := filepath.Join(workDir, fmt.Sprintf("page_%d.png", i))
		if err := os.WriteFile(pagePath, img, 0644); err != nil {
			return "", fmt.Errorf("error writing page image: %w", err)
		}

		text, err := runTesseract(ctx, binary, pagePath, profile)
		if err != nil {
			return "", fmt.Errorf("error running ocr on page %d: %w", i, err)
		}

		pages = append(pages, text)
	}

	return strings.Join(pages, "\n\n") + "\n", nil
}

func runTesseract(ctx context.Context, binary, imagePath string, profile Profile) (string, error) {
	args := []string{imagePath, "stdout", "--psm", fmt.Sprint(profile.PageSegMode)}
	if len(profile.Languages) > 0 {
		args = append(args, "-l", strings.Join(profile.Languages, "+"))
	}

	cmd := exec.CommandContext(ctx, binary, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract failed (%v): %s", err, msg)
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
