package viseme

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Frame is one entry of a viseme timeline, times in seconds.
type Frame struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Phoneme  string  `json:"phoneme"`
	Viseme   Code    `json:"viseme"`
}

type Statistics struct {
	Counts        map[Code]int `json:"counts"`
	TotalDuration float64      `json:"total_duration"`
	TotalVisemes  int          `json:"total_visemes"`
}

type Timeline struct {
	Language   string     `json:"language"`
	Frames     []Frame    `json:"frames"`
	Statistics Statistics `json:"statistics"`
	// Unresolved lists symbols that fell back to CodeRest, first occurrence order, no duplicates.
	Unresolved []string `json:"unresolved"`
}

// Builder turns aligner output into viseme timelines. It holds no per-call state
// so one Builder serves any number of concurrent requests.
type Builder struct {
	languages *Languages
	logger    *slog.Logger
}

func NewBuilder(languages *Languages, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		languages: languages,
		logger:    logger,
	}
}

func (b *Builder) Languages() *Languages {
	return b.languages
}

// Build parses raw aligner output and maps it through the pipeline of lang.
// Errors are ErrUnknownLanguage or *MalformedAlignmentError; no partial timeline is returned.
func (b *Builder) Build(raw []byte, lang string) (*Timeline, error) {
	pipeline, err := b.languages.Get(lang)
	if err != nil {
		return nil, err
	}

	segments, err := ParseAlignment(raw)
	if err != nil {
		return nil, err
	}

	return b.BuildSegments(segments, pipeline), nil
}

func (b *Builder) BuildSegments(segments []Segment, pipeline *Pipeline) *Timeline {
	tl := &Timeline{
		Language: pipeline.Language,
		Frames:   make([]Frame, 0, len(segments)),
		Statistics: Statistics{
			Counts: make(map[Code]int),
		},
		Unresolved: []string{},
	}

	total := decimal.Zero
	seen := make(map[string]struct{})

	for _, segment := range segments {
		code, resolution := pipeline.Resolve(segment.Symbol)
		if resolution == ResolvedDefault {
			b.logger.Warn("No viseme mapping for phoneme, using default",
				"phoneme", segment.Symbol, "language", pipeline.Language, "viseme", CodeRest)

			if _, ok := seen[segment.Symbol]; !ok {
				seen[segment.Symbol] = struct{}{}
				tl.Unresolved = append(tl.Unresolved, segment.Symbol)
			}
		}

		duration := segment.Duration()

		tl.Frames = append(tl.Frames, Frame{
			Start:    segment.Start.InexactFloat64(),
			End:      segment.End.InexactFloat64(),
			Duration: duration.InexactFloat64(),
			Phoneme:  segment.Symbol,
			Viseme:   code,
		})

		tl.Statistics.Counts[code]++
		tl.Statistics.TotalVisemes++
		total = total.Add(duration)
	}

	tl.Statistics.TotalDuration = total.InexactFloat64()

	return tl
}
