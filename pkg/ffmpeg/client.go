package ffmpeg

import "os"

type Config struct {
	TmpDir string `yaml:"tmp_dir"`
	// Convert re-encodes uploads into 16 kHz mono PCM wav before alignment.
	Convert bool `yaml:"convert"`

	FfmpegBin string `yaml:"ffmpeg_bin"`
}

type Client struct {
	cfg *Config
}

func New(cfg *Config) *Client {
	return &Client{
		cfg: cfg,
	}
}

func (c *Client) TmpDir() string {
	if c == nil || c.cfg == nil || c.cfg.TmpDir == "" {
		return os.TempDir()
	}
	return c.cfg.TmpDir
}

func (c *Client) Enabled() bool {
	return c != nil && c.cfg != nil && c.cfg.Convert
}

func (c *Client) ffmpegBin() string {
	if c.cfg == nil || c.cfg.FfmpegBin == "" {
		return "ffmpeg"
	}
	return c.cfg.FfmpegBin
}

const prefix = "lipsync_"
