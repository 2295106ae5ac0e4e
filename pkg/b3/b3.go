package b3

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// AlignmentKey identifies one aligner run: same audio, transcript and language give the same alignment.
func AlignmentKey(audio io.Reader, transcript string, language string) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, audio); err != nil {
		return "", fmt.Errorf("calculating alignment key: %w", err)
	}

	// lengths keep ("ab", "c") and ("a", "bc") apart
	_, _ = fmt.Fprintf(h, "\x00%d:%s\x00%d:%s", len(transcript), transcript, len(language), language)

	return hex.EncodeToString(h.Sum(nil)), nil
}
