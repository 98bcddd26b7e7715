package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DataDirEnv overrides DataDir when set.
const DataDirEnv = "STAKELEDGER_DATA_DIR"

const (
	StorageLevelDB = "leveldb"
	StorageMemory  = "memory"
)

// Config holds the node settings read from disk.
type Config struct {
	DataDir      string `toml:"DataDir" yaml:"data_dir"`
	Storage      string `toml:"Storage" yaml:"storage"`
	KeystorePath string `toml:"KeystorePath" yaml:"keystore_path"`
	// ProgramID is the bech32 stake program identity. Empty selects the
	// built-in program.
	ProgramID   string `toml:"ProgramID" yaml:"program_id"`
	Environment string `toml:"Environment" yaml:"environment"`
	LogLevel    string `toml:"LogLevel" yaml:"log_level"`
	Metrics     bool   `toml:"Metrics" yaml:"metrics"`
	// MetricsFile receives the Prometheus text exposition after every
	// submitted transaction. Setting it implies Metrics.
	MetricsFile string `toml:"MetricsFile" yaml:"metrics_file"`
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		DataDir:      "./stakeledger-data",
		Storage:      StorageLevelDB,
		KeystorePath: "stakeledger.keystore",
		Environment:  "local",
		LogLevel:     "info",
	}
}

// Load reads the configuration at path, decoding YAML for .yaml/.yml files
// and TOML otherwise. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
		}
	}
	cfg.applyEnv()
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := strings.TrimSpace(os.Getenv(DataDirEnv)); dir != "" {
		c.DataDir = dir
	}
}

// resolvePaths anchors relative keystore and metrics paths next to the
// config file.
func (c *Config) resolvePaths(configPath string) {
	c.KeystorePath = anchor(configPath, c.KeystorePath)
	c.MetricsFile = anchor(configPath, c.MetricsFile)
}

func anchor(configPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.resolvePaths(path)
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
