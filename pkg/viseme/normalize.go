package viseme

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Normalizer deletes a fixed set of tone, length and coarticulation markers from phoneme symbols.
type Normalizer struct {
	markers map[rune]struct{}
}

// NewNormalizer returns nil for an empty marker set, which means "no normalization".
func NewNormalizer(markers string) *Normalizer {
	if markers == "" {
		return nil
	}

	n := &Normalizer{
		markers: make(map[rune]struct{}, len(markers)),
	}

	for _, r := range markers {
		n.markers[r] = struct{}{}
	}

	return n
}

func (n *Normalizer) Strip(symbol string) string {
	if n == nil {
		return symbol
	}

	return strings.Map(func(r rune) rune {
		if _, ok := n.markers[r]; ok {
			return -1
		}
		return r
	}, symbol)
}

// Markers returns the marker set in code point order.
func (n *Normalizer) Markers() []rune {
	if n == nil {
		return nil
	}

	res := make([]rune, 0, len(n.markers))
	for r := range n.markers {
		res = append(res, r)
	}

	slices.Sort(res)

	return res
}
