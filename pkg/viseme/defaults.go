package viseme

import (
	"bytes"
	"embed"
	"fmt"
	"io"
)

//go:embed data/*.json
var defaultDictionaries embed.FS

// DefaultMarkers are the tone, length, release and labialization marks stripped
// from Vietnamese aligner phones before the second lookup.
const DefaultMarkers = "ː˦˥˧˨˩ˀ̚ʷw͡"

// MaxCode is the highest viseme the bundled dictionaries use.
const MaxCode Code = 17

// DefaultDictionary returns the bundled dictionary document for a language, if there is one.
func DefaultDictionary(lang string) (io.Reader, error) {
	code, err := CanonicalLanguage(lang)
	if err != nil {
		return nil, err
	}

	data, err := defaultDictionaries.ReadFile("data/" + code + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: no bundled dictionary for %s", ErrUnknownLanguage, code)
	}

	return bytes.NewReader(data), nil
}
