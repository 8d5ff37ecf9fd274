// Package config loads the selective-speaker CLI configuration.
//
// Configuration lives in a single YAML file, by default under
// os.UserConfigDir()/selective-speaker/config.yaml:
//
//	strategy: anchored
//	model_path: /opt/models/wespeaker_resnet34.onnx
//	data_dir: /var/lib/selective-speaker
//	audio:
//	  dir: /var/lib/selective-speaker/audio
//	  s3_bucket: my-recordings
//	  s3_prefix: chunks
//	attribution:
//	  dominance: 0.8
//	  gap_ms: 500
//
// A missing file is not an error; defaults apply. Command-line flags
// override individual values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/doInfinitely/selective-speaker/pkg/diarize"
)

// appDir is the directory name under os.UserConfigDir().
const appDir = "selective-speaker"

// AudioConfig selects where chunk and enrollment audio is read from.
// If S3Bucket is set the S3 backend is used, otherwise the local Dir.
type AudioConfig struct {
	Dir         string `yaml:"dir"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Config is the full CLI configuration.
type Config struct {
	// Strategy is "anchored" or "embedding".
	Strategy string `yaml:"strategy"`

	// ModelPath points at the speaker embedding ONNX model.
	ModelPath string `yaml:"model_path"`

	// DataDir holds the badger database.
	DataDir string `yaml:"data_dir"`

	Audio AudioConfig `yaml:"audio"`

	// Attribution holds the tunables for mapping and segment building.
	Attribution diarize.Config `yaml:"attribution"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Strategy:    "anchored",
		Attribution: diarize.DefaultConfig(),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, "config.yaml"), nil
}

// Load reads the configuration from path. An empty path means the default
// location; a missing file yields defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
