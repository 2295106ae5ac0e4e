package wavinfo

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
)

var ErrNotWav = errors.New("not a wav file")

type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Inspect reads the RIFF header of r. The reader is rewound before returning.
func Inspect(r io.ReadSeeker) (*Info, error) {
	d := wav.NewDecoder(r)
	if d == nil || !d.IsValidFile() {
		_, _ = r.Seek(0, io.SeekStart)
		return nil, ErrNotWav
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind wav: %w", err)
	}

	// duration has to come from a decoder that has not consumed the headers yet
	dur, err := wav.NewDecoder(r).Duration()
	if err != nil {
		_, _ = r.Seek(0, io.SeekStart)
		return nil, fmt.Errorf("failed to read wav duration: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind wav: %w", err)
	}

	return &Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}, nil
}

// AlignerReady reports whether the file can go to the aligner without re-encoding.
func (i *Info) AlignerReady() bool {
	return i.Channels == 1 && i.SampleRate == 16000 && i.BitDepth == 16
}
