package cfg

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"lipsync/pkg/viseme"

	"golang.org/x/text/language"
)

type LanguageConfig struct {
	Code string `yaml:"code"`
	// Dictionary is a path to a phonemeToViseme json file; empty means the bundled one.
	Dictionary string `yaml:"dictionary"`
	// Markers replaces the default marker set; "" disables normalization.
	Markers   *string `yaml:"markers"`
	MaxViseme int     `yaml:"max_viseme"`
	// Required languages abort startup when they fail to load, others are skipped.
	Required bool `yaml:"required"`
}

func (l *LanguageConfig) markers() string {
	if l.Markers != nil {
		return *l.Markers
	}

	// only Vietnamese phones carry tone and length marks by default
	if base, _ := language.Make(l.Code).Base(); base.String() == "vi" {
		return viseme.DefaultMarkers
	}

	return ""
}

func (l *LanguageConfig) maxCode() viseme.Code {
	if l.MaxViseme > 0 {
		return viseme.Code(l.MaxViseme)
	}
	if l.Dictionary == "" {
		return viseme.MaxCode
	}
	return 0
}

func (l *LanguageConfig) Pipeline() (*viseme.Pipeline, error) {
	var r io.Reader

	if l.Dictionary == "" {
		dr, err := viseme.DefaultDictionary(l.Code)
		if err != nil {
			return nil, err
		}
		r = dr
	} else {
		f, err := os.Open(l.Dictionary)
		if err != nil {
			return nil, fmt.Errorf("failed to open dictionary: %w", err)
		}
		defer f.Close()
		r = f
	}

	dict, err := viseme.LoadDictionary(r, viseme.DictionaryOptions{MaxCode: l.maxCode()})
	if err != nil {
		return nil, err
	}

	return &viseme.Pipeline{
		Language:   l.Code,
		Dictionary: dict,
		Normalizer: viseme.NewNormalizer(l.markers()),
	}, nil
}

// BuildLanguages loads every configured dictionary. It fails when a required
// language can not be loaded or when nothing loaded at all.
func BuildLanguages(langs []LanguageConfig, logger *slog.Logger) (*viseme.Languages, error) {
	pipelines := make([]*viseme.Pipeline, 0, len(langs))

	for _, l := range langs {
		p, err := l.Pipeline()
		if err != nil {
			if l.Required {
				return nil, fmt.Errorf("failed to load language %s: %w", l.Code, err)
			}

			logger.Warn("Skipping language", "language", l.Code, "err", err)
			continue
		}

		logger.Info("Loaded viseme mapping", "language", p.Language, "phonemes", p.Dictionary.Len(), "normalization", p.Normalizer != nil)
		pipelines = append(pipelines, p)
	}

	if len(pipelines) == 0 {
		return nil, fmt.Errorf("no languages loaded")
	}

	return viseme.NewLanguages(pipelines...)
}
