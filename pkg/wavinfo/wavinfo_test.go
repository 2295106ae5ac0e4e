package wavinfo_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lipsync/pkg/wavinfo"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func writeWav(t *testing.T, sampleRate, channels int, dur time.Duration) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "speech.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	frames := int(dur.Seconds() * float64(sampleRate))
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	return path
}

func TestInspect(t *testing.T) {
	assert := require.New(t)

	f, err := os.Open(writeWav(t, 16000, 1, 2*time.Second))
	assert.NoError(err)
	defer f.Close()

	info, err := wavinfo.Inspect(f)
	assert.NoError(err)
	assert.Equal(16000, info.SampleRate)
	assert.Equal(1, info.Channels)
	assert.Equal(16, info.BitDepth)
	assert.InDelta(2*time.Second, info.Duration, float64(50*time.Millisecond))
	assert.True(info.AlignerReady())

	pos, err := f.Seek(0, 1)
	assert.NoError(err)
	assert.Equal(int64(0), pos)
}

func TestInspectStereo(t *testing.T) {
	assert := require.New(t)

	f, err := os.Open(writeWav(t, 44100, 2, time.Second))
	assert.NoError(err)
	defer f.Close()

	info, err := wavinfo.Inspect(f)
	assert.NoError(err)
	assert.Equal(2, info.Channels)
	assert.False(info.AlignerReady())
}

func TestInspectNotWav(t *testing.T) {
	_, err := wavinfo.Inspect(strings.NewReader("ID3 definitely an mp3"))
	require.ErrorIs(t, err, wavinfo.ErrNotWav)
}
