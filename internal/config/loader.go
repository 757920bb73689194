package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/housekeep/pkg/logging"
)

const (
	userConfigDir  = ".config/housekeep"
	configFileName = "config.yaml"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/housekeep/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig loads the configuration file at path on top of the defaults.
// An empty path selects the default location, which may be missing; an
// explicitly given file must exist.
func LoadConfig(path string) (HousekeepConfig, error) {
	config := GetDefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return HousekeepConfig{}, NewConfigurationError("", ErrorTypeIO, err.Error(), err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", path)
			return config, nil
		}
		ce := NewConfigurationError(path, ErrorTypeIO, "cannot read configuration file", err)
		ce.Details = err.Error()
		if errors.Is(err, os.ErrNotExist) {
			ce.Suggestions = []string{"check the --config flag", "omit --config to use " + filepath.Join("~", userConfigDir, configFileName)}
		}
		return HousekeepConfig{}, ce
	}

	if err := decode(data, &config); err != nil {
		ce := NewConfigurationError(path, ErrorTypeParse, "malformed YAML", err)
		ce.Details = err.Error()
		ce.LineNumber = yamlErrorLine(err)
		return HousekeepConfig{}, ce
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}

// decode overlays data on config and rejects unknown keys.
func decode(data []byte, config *HousekeepConfig) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// yamlErrorLine extracts the first line number from a yaml.v3 error.
func yamlErrorLine(err error) int {
	var line int
	msg := err.Error()
	if i := strings.Index(msg, "line "); i >= 0 {
		fmt.Sscanf(msg[i:], "line %d", &line)
	}
	return line
}

// Token reads the access token from the configured environment variable.
func Token(cfg HousekeepConfig) (string, error) {
	token := strings.TrimSpace(os.Getenv(cfg.GitLab.TokenEnv))
	if token == "" {
		ce := NewConfigurationError("", ErrorTypeToken, fmt.Sprintf("environment variable %s is empty", cfg.GitLab.TokenEnv), nil)
		ce.Suggestions = []string{fmt.Sprintf("export %s=<personal access token with api scope>", cfg.GitLab.TokenEnv)}
		return "", ce
	}
	return token, nil
}
