// Package config loads the YAML settings that describe where the restoration
// worker lives and how it is invoked.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DecoderNative decodes previews with the pure Go image stack.
	DecoderNative = "native"
	// DecoderOpenCV decodes previews through gocv.
	DecoderOpenCV = "opencv"

	historyOff = "off"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config is the full application configuration.
type Config struct {
	// InstallRoot is where the worker lives. It is also the worker's
	// working directory, so relative paths in Worker.Command resolve there.
	InstallRoot string        `yaml:"install_root"`
	Worker      WorkerConfig  `yaml:"worker"`
	OutputRoot  string        `yaml:"output_root"`
	Device      int           `yaml:"device"`
	WithScratch bool          `yaml:"with_scratch"`
	HighRes     bool          `yaml:"high_res"`
	Preview     PreviewConfig `yaml:"preview"`
	History     HistoryConfig `yaml:"history"`
}

// WorkerConfig describes the external restoration command.
type WorkerConfig struct {
	Command []string `yaml:"command"`
}

// PreviewConfig selects the preview decoder.
type PreviewConfig struct {
	Decoder string `yaml:"decoder"`
}

// HistoryConfig controls the run ledger.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		InstallRoot: executableDir(),
		Worker: WorkerConfig{
			Command: []string{"python3", "run.py"},
		},
		Device:      -1,
		WithScratch: true,
		HighRes:     false,
		Preview:     PreviewConfig{Decoder: DecoderNative},
	}
}

// DefaultPath returns <user config dir>/photo-restoration/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "photo-restoration", "config.yaml")
}

// Load reads configPath on top of Defaults. Keys absent from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", absPath, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}

	cfg.applyDefaults(filepath.Dir(absPath))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", absPath, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Defaults when the file
// does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Defaults()
		cfg.applyDefaults("")
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Validate checks the invariants the launcher relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InstallRoot) == "" {
		return fmt.Errorf("install_root is empty")
	}
	if len(c.Worker.Command) == 0 || strings.TrimSpace(c.Worker.Command[0]) == "" {
		return fmt.Errorf("worker.command is empty")
	}
	switch c.Preview.Decoder {
	case DecoderNative, DecoderOpenCV:
	default:
		return fmt.Errorf("preview.decoder %q is not one of %q, %q", c.Preview.Decoder, DecoderNative, DecoderOpenCV)
	}
	return nil
}

// HistoryPath returns the ledger location, or "" when the ledger is disabled.
func (c *Config) HistoryPath() string {
	if c.History.Path == historyOff {
		return ""
	}
	return c.History.Path
}

func (c *Config) applyDefaults(baseDir string) {
	if c.InstallRoot != "" && !filepath.IsAbs(c.InstallRoot) && baseDir != "" {
		c.InstallRoot = filepath.Join(baseDir, c.InstallRoot)
	}
	c.InstallRoot = filepath.Clean(c.InstallRoot)

	if c.OutputRoot == "" {
		c.OutputRoot = filepath.Join(c.InstallRoot, "output_gui")
	} else if !filepath.IsAbs(c.OutputRoot) {
		c.OutputRoot = filepath.Join(c.InstallRoot, c.OutputRoot)
	}

	if c.Preview.Decoder == "" {
		c.Preview.Decoder = DecoderNative
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.OutputRoot, "history.db")
	}
}

func expandEnv(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}
