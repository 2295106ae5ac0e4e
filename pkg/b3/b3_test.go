package b3_test

import (
	"strings"
	"testing"

	"lipsync/pkg/b3"

	"github.com/stretchr/testify/require"
)

func TestAlignmentKey(t *testing.T) {
	assert := require.New(t)

	key := func(audio, transcript, lang string) string {
		k, err := b3.AlignmentKey(strings.NewReader(audio), transcript, lang)
		assert.NoError(err)
		return k
	}

	base := key("audio", "xin chào", "vi")
	assert.Equal(base, key("audio", "xin chào", "vi"))
	assert.NotEqual(base, key("audio2", "xin chào", "vi"))
	assert.NotEqual(base, key("audio", "xin chao", "vi"))
	assert.NotEqual(base, key("audio", "xin chào", "en"))
	assert.NotEqual(key("a", "bc", "vi"), key("ab", "c", "vi"))
}
