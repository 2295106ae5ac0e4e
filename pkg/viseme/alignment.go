package viseme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PhoneTier is the tier name the aligner writes phone intervals under.
const PhoneTier = "phones"

// Segment is one aligned phone. Times are seconds.
type Segment struct {
	Start  decimal.Decimal
	End    decimal.Decimal
	Symbol string
}

func (s Segment) Duration() decimal.Decimal {
	return s.End.Sub(s.Start)
}

// MalformedAlignmentError is returned when aligner output has no usable phone tier.
// Index is the offending entry or -1 when the document structure itself is wrong.
type MalformedAlignmentError struct {
	Index  int
	Reason string
}

func (e *MalformedAlignmentError) Error() string {
	if e.Index < 0 {
		return "malformed alignment: " + e.Reason
	}
	return fmt.Sprintf("malformed alignment: entry %d: %s", e.Index, e.Reason)
}

type alignmentDocument struct {
	Tiers map[string]alignmentTier `json:"tiers"`
}

type alignmentTier struct {
	Type    string             `json:"type"`
	Entries *[]json.RawMessage `json:"entries"`
}

var jsonNull = []byte("null")

// ParseAlignment extracts the phone tier of an aligner JSON document:
//
//	{"tiers": {"phones": {"entries": [[0.0, 0.12, "a"], ...]}}}
//
// Entries keep the aligner's order; nothing is sorted or deduplicated.
func ParseAlignment(raw []byte) ([]Segment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil, &MalformedAlignmentError{Index: -1, Reason: "empty document"}
	}

	var doc alignmentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedAlignmentError{Index: -1, Reason: "invalid json: " + err.Error()}
	}

	if doc.Tiers == nil {
		return nil, &MalformedAlignmentError{Index: -1, Reason: "missing tiers"}
	}

	tier, ok := doc.Tiers[PhoneTier]
	if !ok {
		return nil, &MalformedAlignmentError{Index: -1, Reason: "missing " + PhoneTier + " tier"}
	}

	if tier.Entries == nil {
		return nil, &MalformedAlignmentError{Index: -1, Reason: PhoneTier + " tier has no entries"}
	}

	segments := make([]Segment, 0, len(*tier.Entries))
	for i, entry := range *tier.Entries {
		segment, err := parseEntry(entry)
		if err != nil {
			return nil, &MalformedAlignmentError{Index: i, Reason: err.Error()}
		}

		segments = append(segments, segment)
	}

	return segments, nil
}

func parseEntry(entry json.RawMessage) (Segment, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return Segment{}, errors.New("not a list")
	}

	if len(fields) != 3 {
		return Segment{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	start, err := parseSeconds(fields[0])
	if err != nil {
		return Segment{}, fmt.Errorf("start: %w", err)
	}

	end, err := parseSeconds(fields[1])
	if err != nil {
		return Segment{}, fmt.Errorf("end: %w", err)
	}

	if end.LessThan(start) {
		return Segment{}, fmt.Errorf("end %s is before start %s", end, start)
	}

	var symbol string
	if err := json.Unmarshal(fields[2], &symbol); err != nil {
		return Segment{}, errors.New("symbol is not a string")
	}

	if symbol == "" {
		return Segment{}, errors.New("empty symbol")
	}

	return Segment{
		Start:  start,
		End:    end,
		Symbol: symbol,
	}, nil
}

// parseSeconds accepts JSON numbers and numeric strings.
func parseSeconds(field json.RawMessage) (decimal.Decimal, error) {
	if bytes.Equal(bytes.TrimSpace(field), jsonNull) {
		return decimal.Decimal{}, errors.New("null time")
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(field); err != nil {
		return decimal.Decimal{}, errors.New("not a number")
	}

	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative time %s", d)
	}

	// frames carry float64 seconds
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Decimal{}, fmt.Errorf("time %s out of range", field)
	}

	return d, nil
}
