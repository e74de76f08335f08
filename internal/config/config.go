package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harvestkit/harvestkit/pkg/logging"
	"github.com/harvestkit/harvestkit/pkg/ratelimit"
)

// Config is the top-level configuration for a harvest run.
type Config struct {
	// Query is the search query. Required for one-shot runs.
	Query string `json:"query"`

	// Target restricts results to a type: "pdf" limits the harvest to
	// filetype:pdf results, "page" harvests rendered pages, "any" takes both.
	Target string `json:"target"`

	// Engines is the ordered list of search engines to try.
	Engines []string `json:"engines"`

	// MaxFiles caps the number of documents stored per run.
	MaxFiles int `json:"max_files"`

	// Tasks is the number of concurrent download workers.
	Tasks int `json:"tasks"`

	// VolumeSize is the number of documents per output volume.
	VolumeSize int `json:"volume_size"`

	// VolumeFormat is "text" or "pdf".
	VolumeFormat string `json:"volume_format"`

	// OutputDir receives the volume files.
	OutputDir string `json:"output_dir"`

	// ArchiveDir, if non-empty, enables the git archive backend rooted there.
	ArchiveDir string `json:"archive_dir"`

	// RespectRobots enables the robots.txt gate.
	RespectRobots bool `json:"respect_robots"`

	// UseBrowser enables the headless-browser fetch fallback.
	UseBrowser bool `json:"use_browser"`

	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout time.Duration `json:"fetch_timeout"`

	// MinPDFSize rejects PDF downloads smaller than this many bytes.
	MinPDFSize int64 `json:"min_pdf_size"`

	Logging   *logging.LogConfig `json:"logging"`
	RateLimit *ratelimit.Config  `json:"rate_limit"`
	Server    *ServerConfig      `json:"server"`
}

// ServerConfig holds settings for the control-plane and browse servers.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	BrowsePort   int    `json:"browse_port"`
	EnableCORS   bool   `json:"enable_cors"`
	TemporalHost string `json:"temporal_host"`
}

// Default returns a complete default configuration.
func Default() *Config {
	return &Config{
		Target:        "any",
		Engines:       []string{"duckduckgo", "bing", "startpage"},
		MaxFiles:      50,
		Tasks:         3,
		VolumeSize:    10,
		VolumeFormat:  "text",
		OutputDir:     "./volumes",
		RespectRobots: true,
		UseBrowser:    false,
		FetchTimeout:  30 * time.Second,
		MinPDFSize:    1024,
		Logging:       logging.DefaultLogConfig(),
		RateLimit:     ratelimit.DefaultConfig(),
		Server: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			BrowsePort:   8081,
			EnableCORS:   true,
			TemporalHost: "localhost:7233",
		},
	}
}

// FromEnv layers environment variables over the defaults. The variable
// names match the ones the original throwaway scripts read.
func FromEnv() *Config {
	cfg := Default()

	cfg.Query = getEnv("INPUT_QUERY", cfg.Query)
	cfg.Target = getEnv("INPUT_TARGET", cfg.Target)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.ArchiveDir = getEnv("ARCHIVE_DIR", cfg.ArchiveDir)
	cfg.VolumeFormat = getEnv("VOLUME_FORMAT", cfg.VolumeFormat)
	cfg.Tasks = getEnvInt("TASKS", cfg.Tasks)
	cfg.MaxFiles = getEnvInt("MAX_FILES", cfg.MaxFiles)
	cfg.VolumeSize = getEnvInt("VOLUME_SIZE", cfg.VolumeSize)
	cfg.RespectRobots = getEnvBool("RESPECT_ROBOTS", cfg.RespectRobots)
	cfg.UseBrowser = getEnvBool("USE_BROWSER", cfg.UseBrowser)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.TemporalHost = getEnv("TEMPORAL_HOST", cfg.Server.TemporalHost)

	if engines := getEnv("ENGINES", ""); engines != "" {
		cfg.Engines = splitList(engines)
	}

	return cfg
}

// Validate checks the configuration for a runnable harvest.
func (c *Config) Validate() error {
	if c.Tasks < 1 {
		return fmt.Errorf("tasks must be at least 1, got %d", c.Tasks)
	}
	if c.MaxFiles < 1 {
		return fmt.Errorf("max files must be at least 1, got %d", c.MaxFiles)
	}
	if c.VolumeSize < 1 {
		return fmt.Errorf("volume size must be at least 1, got %d", c.VolumeSize)
	}
	switch c.Target {
	case "pdf", "page", "any":
	default:
		return fmt.Errorf("unknown target %q (want pdf, page, or any)", c.Target)
	}
	switch c.VolumeFormat {
	case "text", "pdf":
	default:
		return fmt.Errorf("unknown volume format %q (want text or pdf)", c.VolumeFormat)
	}
	if len(c.Engines) == 0 {
		return fmt.Errorf("at least one search engine is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
