package viseme_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"lipsync/pkg/viseme"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T, logs *bytes.Buffer) *viseme.Builder {
	t.Helper()

	langs, err := viseme.NewLanguages(
		newPipeline(t, "vi", map[string]viseme.Code{"a": 2, "m": 4, "sil": 0}, "ː˦"),
		newPipeline(t, "en", map[string]viseme.Code{"a": 2, "m": 4, "sil": 0}, ""),
	)
	require.NoError(t, err)

	var logger *slog.Logger
	if logs != nil {
		logger = slog.New(slog.NewTextHandler(logs, nil))
	}

	return viseme.NewBuilder(langs, logger)
}

func phones(entries ...string) []byte {
	return []byte(`{"tiers": {"phones": {"type": "interval", "entries": [` + strings.Join(entries, ",") + `]}}}`)
}

func TestBuild(t *testing.T) {
	assert := require.New(t)

	b := newBuilder(t, nil)

	tl, err := b.Build(phones(`[0.0, 0.12, "a"]`, `[0.12, 0.30, "m"]`, `[0.30, 0.45, "sil"]`), "vi")
	assert.NoError(err)

	expected := &viseme.Timeline{
		Language: "vi",
		Frames: []viseme.Frame{
			{Start: 0.0, End: 0.12, Duration: 0.12, Phoneme: "a", Viseme: 2},
			{Start: 0.12, End: 0.30, Duration: 0.18, Phoneme: "m", Viseme: 4},
			{Start: 0.30, End: 0.45, Duration: 0.15, Phoneme: "sil", Viseme: 0},
		},
		Statistics: viseme.Statistics{
			Counts:        map[viseme.Code]int{2: 1, 4: 1, 0: 1},
			TotalDuration: 0.45,
			TotalVisemes:  3,
		},
		Unresolved: []string{},
	}

	if diff := pretty.Compare(expected, tl); diff != "" {
		t.Errorf("timeline diff (-want +got):\n%s", diff)
	}
}

func TestBuildNormalization(t *testing.T) {
	assert := require.New(t)

	b := newBuilder(t, nil)

	tl, err := b.Build(phones(`[0.0, 0.2, "aː˦"]`), "vi")
	assert.NoError(err)
	assert.Equal(viseme.Code(2), tl.Frames[0].Viseme)
	assert.Equal("aː˦", tl.Frames[0].Phoneme)
	assert.Empty(tl.Unresolved)

	// en has no marker set, so the same symbol is a miss
	tl, err = b.Build(phones(`[0.0, 0.2, "aː˦"]`), "en")
	assert.NoError(err)
	assert.Equal(viseme.CodeRest, tl.Frames[0].Viseme)
	assert.Equal([]string{"aː˦"}, tl.Unresolved)
}

func TestBuildDefaultFallback(t *testing.T) {
	assert := require.New(t)

	var logs bytes.Buffer
	b := newBuilder(t, &logs)

	tl, err := b.Build(phones(`[0, 0.1, "ɗ"]`, `[0.1, 0.2, "a"]`, `[0.2, 0.3, "ɗ"]`, `[0.3, 0.4, "ː˦"]`), "vi")
	assert.NoError(err)

	assert.Len(tl.Frames, 4)
	assert.Equal(viseme.CodeRest, tl.Frames[0].Viseme)
	assert.Equal(viseme.CodeRest, tl.Frames[2].Viseme)
	assert.Equal(viseme.CodeRest, tl.Frames[3].Viseme)
	assert.Equal([]string{"ɗ", "ː˦"}, tl.Unresolved)
	assert.Equal(map[viseme.Code]int{0: 3, 2: 1}, tl.Statistics.Counts)

	assert.Contains(logs.String(), "level=WARN")
	assert.Contains(logs.String(), "phoneme=ɗ")
	assert.Contains(logs.String(), "language=vi")
}

func TestBuildInvariants(t *testing.T) {
	assert := require.New(t)

	b := newBuilder(t, nil)

	entries := make([]string, 0, 200)
	symbols := []string{"a", "m", "sil", "aː", "x", "a˦"}
	start := 0.0
	for i := 0; i < 200; i++ {
		end := start + 0.01*float64(i%7)
		entries = append(entries, fmt.Sprintf(`[%.2f, %.2f, %q]`, start, end, symbols[i%len(symbols)]))
		start = end
	}

	tl, err := b.Build(phones(entries...), "vi")
	assert.NoError(err)
	assert.Len(tl.Frames, 200)
	assert.Equal(200, tl.Statistics.TotalVisemes)

	count := 0
	for _, c := range tl.Statistics.Counts {
		count += c
	}
	assert.Equal(len(tl.Frames), count)

	sum := 0.0
	for i, f := range tl.Frames {
		assert.Equal(symbols[i%len(symbols)], f.Phoneme)
		assert.GreaterOrEqual(f.Duration, 0.0)
		assert.InDelta(f.End-f.Start, f.Duration, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(f.Start, tl.Frames[i-1].Start)
		}
		sum += f.Duration
	}
	assert.InDelta(sum, tl.Statistics.TotalDuration, 1e-9)
}

func TestBuildIdempotent(t *testing.T) {
	assert := require.New(t)

	b := newBuilder(t, nil)
	raw := phones(`[0.0, 0.12, "a"]`, `[0.12, 0.30, "q"]`, `[0.30, 0.45, "a˦"]`)

	first, err := b.Build(raw, "vi")
	assert.NoError(err)

	second, err := b.Build(raw, "vi")
	assert.NoError(err)

	assert.Equal(first, second)
}

func TestBuildEmpty(t *testing.T) {
	assert := require.New(t)

	tl, err := newBuilder(t, nil).Build(phones(), "vi")
	assert.NoError(err)
	assert.Empty(tl.Frames)
	assert.Equal(0, tl.Statistics.TotalVisemes)
	assert.Equal(0.0, tl.Statistics.TotalDuration)
	assert.Empty(tl.Statistics.Counts)
}

func TestBuildMalformed(t *testing.T) {
	assert := require.New(t)

	b := newBuilder(t, nil)

	tl, err := b.Build([]byte(`{"tiers": {"words": {"entries": []}}}`), "vi")
	assert.Nil(tl)

	var malformed *viseme.MalformedAlignmentError
	assert.True(errors.As(err, &malformed))

	// a bad entry anywhere rejects the whole document
	tl, err = b.Build(phones(`[0, 0.1, "a"]`, `[0.1, 0.2, "m"]`, `[0.3, 0.2, "a"]`), "vi")
	assert.Nil(tl)
	assert.True(errors.As(err, &malformed))
	assert.Equal(2, malformed.Index)

	// a time that does not fit a float64 can not become a frame
	tl, err = b.Build(phones(`[0, "1e400", "a"]`), "vi")
	assert.Nil(tl)
	assert.True(errors.As(err, &malformed))
	assert.Equal(0, malformed.Index)
}

func TestBuildUnknownLanguage(t *testing.T) {
	assert := require.New(t)

	tl, err := newBuilder(t, nil).Build(phones(`[0, 0.1, "a"]`), "fr")
	assert.Nil(tl)
	assert.ErrorIs(err, viseme.ErrUnknownLanguage)
}

func TestBuildConcurrent(t *testing.T) {
	b := newBuilder(t, nil)
	raw := phones(`[0.0, 0.12, "a"]`, `[0.12, 0.30, "m"]`, `[0.30, 0.45, "a˦"]`)

	expected, err := b.Build(raw, "vi")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*viseme.Timeline, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = b.Build(raw, "vi")
		}(i)
	}
	wg.Wait()

	for _, tl := range results {
		require.Equal(t, expected, tl)
	}
}
