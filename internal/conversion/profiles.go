package conversion

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"
)

// Profile configures a local OCR pathway: which language packs to load, the
// DPI pages are rasterized at, and the tesseract page segmentation mode.
type Profile struct {
	Languages   []string
	DPI         int
	PageSegMode int
}

//go:embed ocr_profiles.yaml
var ocrProfilesYAML []byte

func loadProfiles() (map[Technique]Profile, error) {
	raw := struct {
		Profiles []struct {
			Technique   string   `yaml:"technique"`
			Languages   []string `yaml:"languages"`
			DPI         int      `yaml:"dpi"`
			PageSegMode int      `yaml:"page_seg_mode"`
		} `yaml:"profiles"`
	}{}

	if err := yaml.Unmarshal(ocrProfilesYAML, &raw); err != nil {
		return nil, fmt.Errorf("error parsing ocr profiles: %w", err)
	}

	profiles := make(map[Technique]Profile, len(raw.Profiles))
	for _, p := range raw.Profiles {
		if p.DPI <= 0 {
			return nil, fmt.Errorf("ocr profile %s has invalid dpi %d", p.Technique, p.DPI)
		}
		profiles[Technique(p.Technique)] = Profile{
			Languages:   p.Languages,
			DPI:         p.DPI,
			PageSegMode: p.PageSegMode,
		}
	}

	return profiles, nil
}
