package mfa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNoModel = errors.New("no aligner model for language")

type Model struct {
	AcousticModel string `yaml:"acoustic_model"`
	Dictionary    string `yaml:"dictionary"`
}

type Config struct {
	Bin string `yaml:"bin"`
	// Models is keyed by language code.
	Models        map[string]Model `yaml:"models"`
	ExtraArgs     []string         `yaml:"extra_args"`
	Timeout       time.Duration    `yaml:"timeout"`
	MaxConcurrent int              `yaml:"max_concurrent"`
}

type Client struct {
	cfg    *Config
	logger *slog.Logger
	slots  chan struct{}
}

func New(cfg *Config, logger *slog.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logger,
	}

	if cfg.MaxConcurrent > 0 {
		c.slots = make(chan struct{}, cfg.MaxConcurrent)
	}

	return c
}

type Request struct {
	AudioPath      string
	TranscriptPath string
	Language       string
}

const stderrTail = 20

func (c *Client) bin() string {
	if c.cfg.Bin == "" {
		return "mfa"
	}
	return c.cfg.Bin
}

// Align runs a single-file alignment and returns the aligner's JSON document.
func (c *Client) Align(ctx context.Context, req Request) ([]byte, error) {
	model, ok := c.cfg.Models[req.Language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, req.Language)
	}

	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	outputPath := filepath.Join(filepath.Dir(req.AudioPath), "alignment_"+uuid.NewString()+".json")
	defer os.Remove(outputPath)

	args := []string{
		"align_one",
		req.AudioPath, req.TranscriptPath,
		model.AcousticModel, model.Dictionary,
		outputPath,
		"--output_format", "json",
		"--single_speaker",
		"--clean",
		"--final_clean",
		"--overwrite",
		"--textgrid_cleanup",
	}
	args = append(args, c.cfg.ExtraArgs...)

	start := time.Now()
	c.logger.Info("Starting alignment", "audio", req.AudioPath, "language", req.Language)

	stderr := &tailWriter{logger: c.logger}

	cmd := exec.CommandContext(ctx, c.bin(), args...)
	cmd.Stderr = stderr
	// aligner worker processes may outlive a killed parent and hold the pipe
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	stderr.flush()
	if err != nil {
		return nil, fmt.Errorf("failed to run mfa: %w: %s", err, strings.Join(stderr.tail, "\n"))
	}

	res, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mfa output: %w", err)
	}

	c.logger.Info("Alignment completed", "language", req.Language, "took", time.Since(start))

	return res, nil
}

// tailWriter logs aligner output line by line and keeps the last lines for error reporting.
type tailWriter struct {
	logger *slog.Logger
	buf    []byte
	tail   []string
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.line(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *tailWriter) flush() {
	if len(w.buf) > 0 {
		w.line(string(w.buf))
		w.buf = nil
	}
}

func (w *tailWriter) line(line string) {
	line = strings.TrimRight(line, "\r")
	w.logger.Debug("mfa", "line", line)

	if len(w.tail) == stderrTail {
		w.tail = w.tail[1:]
	}
	w.tail = append(w.tail, line)
}

func (c *Client) acquire(ctx context.Context) error {
	if c.slots == nil {
		return nil
	}

	select {
	case c.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for aligner slot: %w", ctx.Err())
	}
}

func (c *Client) release() {
	if c.slots != nil {
		<-c.slots
	}
}

func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.bin(), "version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get mfa version: %w", err)
	}

	return string(bytes.TrimSpace(out)), nil
}
