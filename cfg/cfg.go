package cfg

import (
	"fmt"
	"os"
	"time"

	"lipsync/db"
	"lipsync/internal/app/api"
	"lipsync/pkg/alignhttp"
	"lipsync/pkg/ffmpeg"
	"lipsync/pkg/mfa"
	"lipsync/pkg/s3client"
	"lipsync/pkg/viseme"

	"gopkg.in/yaml.v3"
)

// PathEnv overrides the -cfg-path default.
const PathEnv = "LIPSYNC_CFG_PATH"

const (
	AlignerBackendMFA  = "mfa"
	AlignerBackendHTTP = "http"
)

type Config struct {
	Api api.Config `yaml:"api"`

	Languages []LanguageConfig `yaml:"languages"`

	Aligner AlignerConfig `yaml:"aligner"`

	Ffmpeg ffmpeg.Config `yaml:"ffmpeg"`

	DB db.Config `yaml:"db"`

	S3 s3client.Config `yaml:"s3"`

	Cleanup CleanupConfig `yaml:"cleanup"`
}

type AlignerConfig struct {
	Backend string           `yaml:"backend"`
	MFA     mfa.Config       `yaml:"mfa"`
	HTTP    alignhttp.Config `yaml:"http"`
}

type CleanupConfig struct {
	Interval time.Duration `yaml:"interval"`
	// MaxAge is how long an abandoned work dir or request record is kept.
	MaxAge   time.Duration `yaml:"max_age"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

func DefaultPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return "cfg/cfg.yaml"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't open %s file: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg *Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("can't unmarshal cfg: %w", err)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.setDefaults()

	switch cfg.Aligner.Backend {
	case AlignerBackendMFA, AlignerBackendHTTP:
	default:
		return nil, fmt.Errorf("unknown aligner backend %q", cfg.Aligner.Backend)
	}

	models, err := canonicalModels(cfg.Aligner.MFA.Models)
	if err != nil {
		return nil, err
	}
	cfg.Aligner.MFA.Models = models

	return cfg, nil
}

// canonicalModels keys aligner models by the same language tags requests carry ("VI" -> "vi").
func canonicalModels(models map[string]mfa.Model) (map[string]mfa.Model, error) {
	res := make(map[string]mfa.Model, len(models))

	for code, model := range models {
		canonical, err := viseme.CanonicalLanguage(code)
		if err != nil {
			return nil, fmt.Errorf("invalid aligner model language: %w", err)
		}

		if _, ok := res[canonical]; ok {
			return nil, fmt.Errorf("duplicate aligner model for %s", canonical)
		}

		res[canonical] = model
	}

	return res, nil
}

func (c *Config) setDefaults() {
	if c.Api.Port == 0 {
		c.Api.Port = 8000
	}
	if c.Api.Timeout == 0 {
		c.Api.Timeout = 5 * time.Minute
	}

	if len(c.Languages) == 0 {
		c.Languages = []LanguageConfig{{Code: "vi", Required: true}}
	}

	if c.Aligner.Backend == "" {
		c.Aligner.Backend = AlignerBackendMFA
	}
	if len(c.Aligner.MFA.Models) == 0 {
		c.Aligner.MFA.Models = map[string]mfa.Model{
			"vi": {AcousticModel: "vietnamese_mfa", Dictionary: "vietnamese_mfa"},
		}
	}

	if c.DB.Driver == "" {
		c.DB.Driver = db.DriverSQLite
	}
	if c.DB.ConnStr == "" && c.DB.Driver == db.DriverSQLite {
		c.DB.ConnStr = "file:lipsync.db"
	}

	if c.Cleanup.Interval == 0 {
		c.Cleanup.Interval = 30 * time.Minute
	}
	if c.Cleanup.MaxAge == 0 {
		c.Cleanup.MaxAge = 24 * time.Hour
	}
	if c.Cleanup.CacheTTL == 0 {
		c.Cleanup.CacheTTL = 7 * 24 * time.Hour
	}
}
