package viseme

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
)

var (
	ErrUnknownLanguage   = errors.New("unknown language")
	ErrDuplicateLanguage = errors.New("duplicate language")
)

// Resolution tells how a phoneme got its viseme code.
type Resolution int

const (
	ResolvedExact Resolution = iota
	ResolvedNormalized
	ResolvedDefault
)

func (r Resolution) String() string {
	switch r {
	case ResolvedExact:
		return "exact"
	case ResolvedNormalized:
		return "normalized"
	case ResolvedDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Pipeline is everything needed to resolve phonemes of one language.
// Normalizer is nil for languages that go straight from a miss to CodeRest.
type Pipeline struct {
	Language   string
	Dictionary *Dictionary
	Normalizer *Normalizer
}

func (p *Pipeline) Resolve(symbol string) (Code, Resolution) {
	if code, ok := p.Dictionary.Lookup(symbol); ok {
		return code, ResolvedExact
	}

	if p.Normalizer != nil {
		if stripped := p.Normalizer.Strip(symbol); stripped != "" && stripped != symbol {
			if code, ok := p.Dictionary.Lookup(stripped); ok {
				return code, ResolvedNormalized
			}
		}
	}

	return CodeRest, ResolvedDefault
}

// Languages is the set of configured pipelines keyed by canonical language tag.
// It is built once at startup and only read afterwards.
type Languages struct {
	pipelines map[string]*Pipeline
}

func NewLanguages(pipelines ...*Pipeline) (*Languages, error) {
	l := &Languages{
		pipelines: make(map[string]*Pipeline, len(pipelines)),
	}

	for _, p := range pipelines {
		if p == nil || p.Dictionary == nil {
			return nil, errors.New("pipeline without dictionary")
		}

		code, err := CanonicalLanguage(p.Language)
		if err != nil {
			return nil, err
		}

		if _, ok := l.pipelines[code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLanguage, code)
		}

		l.pipelines[code] = &Pipeline{
			Language:   code,
			Dictionary: p.Dictionary,
			Normalizer: p.Normalizer,
		}
	}

	return l, nil
}

// CanonicalLanguage turns "VI", "vi" or "vi-VN"-style input into a BCP 47 tag string.
func CanonicalLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}

	return tag.String(), nil
}

func (l *Languages) Get(code string) (*Pipeline, error) {
	canonical, err := CanonicalLanguage(code)
	if err != nil {
		return nil, err
	}

	if p, ok := l.pipelines[canonical]; ok {
		return p, nil
	}

	// "vi-VN" falls back to "vi"
	if base, conf := language.MustParse(canonical).Base(); conf != language.No {
		if p, ok := l.pipelines[base.String()]; ok {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, canonical)
}

func (l *Languages) LookupExact(code string, symbol string) (Code, bool) {
	p, err := l.Get(code)
	if err != nil {
		return CodeRest, false
	}

	return p.Dictionary.Lookup(symbol)
}

func (l *Languages) Codes() []string {
	codes := maps.Keys(l.pipelines)
	slices.Sort(codes)

	return codes
}
