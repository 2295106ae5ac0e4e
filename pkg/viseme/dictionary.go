package viseme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Code is a mouth shape id. CodeRest (0) stands for rest, silence and anything unknown.
type Code int

const CodeRest Code = 0

// Dictionary maps phoneme symbols of one language to viseme codes.
// It is never mutated after construction and is safe for concurrent use.
type Dictionary struct {
	table map[string]Code
}

type DictionaryOptions struct {
	// MaxCode rejects codes above it when > 0.
	MaxCode Code
}

type dictionaryFile struct {
	PhonemeToViseme map[string]json.Number `json:"phonemeToViseme"`
}

func NewDictionary(table map[string]Code) *Dictionary {
	d := &Dictionary{
		table: make(map[string]Code, len(table)),
	}

	for symbol, code := range table {
		d.table[symbol] = code
	}

	return d
}

// LoadDictionary reads a {"phonemeToViseme": {"symbol": code}} document.
func LoadDictionary(r io.Reader, opts DictionaryOptions) (*Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var file dictionaryFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode dictionary: %w", err)
	}

	if len(file.PhonemeToViseme) == 0 {
		return nil, errors.New("dictionary has no phonemeToViseme entries")
	}

	table := make(map[string]Code, len(file.PhonemeToViseme))
	for symbol, num := range file.PhonemeToViseme {
		code, err := parseCode(num)
		if err != nil {
			return nil, fmt.Errorf("phoneme %q: %w", symbol, err)
		}

		if opts.MaxCode > 0 && code > opts.MaxCode {
			return nil, fmt.Errorf("phoneme %q: viseme %d is above max %d", symbol, code, opts.MaxCode)
		}

		table[symbol] = code
	}

	return &Dictionary{table: table}, nil
}

func parseCode(num json.Number) (Code, error) {
	f, err := num.Float64()
	if err != nil {
		return 0, fmt.Errorf("viseme %q is not a number", num.String())
	}

	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("viseme %s is not a non-negative integer", num.String())
	}

	return Code(f), nil
}

// Lookup is an exact, verbatim match.
func (d *Dictionary) Lookup(symbol string) (Code, bool) {
	code, ok := d.table[symbol]
	return code, ok
}

func (d *Dictionary) Len() int {
	return len(d.table)
}
