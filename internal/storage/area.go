package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const maxFileNameLength = 128

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFileName strips any path components from name and replaces
// characters outside [A-Za-z0-9_.-] with underscores. Returns "" if nothing
// usable remains.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileNameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	return name
}

// Area is the process-lifetime storage tree: uploaded documents live at the
// root, derived artifacts under the nested converted/ directory. There is no
// teardown; a temp-dir backed area rides on OS temp cleanup. Not suitable for
// multi-tenant or production storage.
type Area struct {
	root      string
	converted string
}

// NewArea creates the storage tree rooted at dir, or at a fresh temp
// directory if dir is empty.
func NewArea(dir string) (*Area, error) {
	var root string
	var err error
	if dir == "" {
		root, err = os.MkdirTemp("", "pdf-converter-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	} else {
		root, err = filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
		}
		if err := os.MkdirAll(root, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", root, err)
		}
	}

	converted := filepath.Join(root, "converted")
	if err := os.MkdirAll(converted, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", converted, err)
	}

	return &Area{root: root, converted: converted}, nil
}

func (a *Area) Root() string { return a.root }

// UploadPath returns the location of a file in the upload area. The name must
// already be sanitized.
func (a *Area) UploadPath(name string) string {
	return filepath.Join(a.root, name)
}

func (a *Area) DocumentPath(baseName string) string {
	return a.UploadPath(baseName + ".pdf")
}

func (a *Area) HasDocument(baseName string) bool {
	_, err := os.Stat(a.DocumentPath(baseName))
	return err == nil
}

func (a *Area) SaveDocument(name string, data io.Reader) error {
	dst, err := os.Create(a.UploadPath(name))
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return nil
}

func (a *Area) ReadDocument(baseName string) ([]byte, error) {
	data, err := os.ReadFile(a.DocumentPath(baseName))
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", baseName, err)
	}
	return data, nil
}

// ArtifactPath returns the location of a derived artifact in the output area.
func (a *Area) ArtifactPath(name string) string {
	return filepath.Join(a.converted, name)
}

func (a *Area) HasArtifact(name string) bool {
	_, err := os.Stat(a.ArtifactPath(name))
	return err == nil
}

func (a *Area) WriteArtifact(name string, data []byte) error {
	if err := os.WriteFile(a.ArtifactPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return nil
}

func (a *Area) ReadArtifact(name string) ([]byte, error) {
	data, err := os.ReadFile(a.ArtifactPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}
