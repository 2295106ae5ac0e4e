package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// ToWav re-encodes inputPath into 16 kHz mono 16-bit PCM, the format the aligner acoustic models are trained on.
// The output lands next to the input and its path is returned.
func (c *Client) ToWav(ctx context.Context, inputPath string) (string, error) {
	outputPath := filepath.Join(filepath.Dir(inputPath), prefix+uuid.NewString()+".wav")

	cmd := exec.CommandContext(ctx, c.ffmpegBin(), "-y", "-i", inputPath, "-nostats", "-loglevel", "error",
		"-ar", "16000", "-ac", "1", "-c:a", "pcm_s16le", "-vn", "-f", "wav", outputPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return outputPath, nil
}
