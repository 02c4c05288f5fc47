package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the goupi tool configuration. It controls how a build runs,
// never what a site contains; that lives in site.toml.
type Config struct {
	BaseDir    string            `toml:"base_dir"`
	LogDir     string            `toml:"log_dir,omitempty"`
	LogLevel   string            `toml:"log_level,omitempty"` // debug, info, warn or error
	Build      BuildConfig       `toml:"build"`
	History    HistoryConfig     `toml:"history"`
	Publishers []PublisherConfig `toml:"publishers"`
}

// BuildConfig holds defaults for the build command.
type BuildConfig struct {
	Workers int      `toml:"workers"` // posts processed concurrently, at least 1
	Force   bool     `toml:"force"`
	Ignore  []string `toml:"ignore"` // globs skipped when mirroring res/ and publishing
}

// HistoryConfig selects the build history journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type HistoryConfig struct {
	Type    string `toml:"type"`               // "none", "memory" or "sqlite"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// PublisherConfig describes one publish target.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type PublisherConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"
	Name string `toml:"name"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores

	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// Default returns the configuration used when no config file exists:
// no log file, no history and sequential builds.
func Default(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogLevel: "info",
		Build:    BuildConfig{Workers: 1},
		History:  HistoryConfig{Type: "none"},
	}
}

// NewConfig returns the configuration written by `goupi config init`:
// logs and a sqlite history under baseDir.
func NewConfig(baseDir string) *Config {
	cfg := Default(baseDir)
	cfg.LogDir = filepath.Join(baseDir, "log")
	cfg.History = HistoryConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")}
	return cfg
}

// Publisher returns the publisher named name, or the first one when name
// is empty.
func (c *Config) Publisher(name string) (PublisherConfig, error) {
	if len(c.Publishers) == 0 {
		return PublisherConfig{}, fmt.Errorf("no publishers configured")
	}
	if name == "" {
		return c.Publishers[0], nil
	}
	for _, p := range c.Publishers {
		if p.Name == name {
			return p, nil
		}
	}
	return PublisherConfig{}, fmt.Errorf("publisher %q not found in config", name)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Build.Workers < 1 {
		cfg.Build.Workers = 1
	}
	if cfg.History.Type == "" {
		cfg.History.Type = "none"
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path. A missing file is not an error: Default
// is returned with BaseDir set to baseDir.
func Load(path, baseDir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(baseDir), nil
	}
	cfg, err := ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
