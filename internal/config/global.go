package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/lp/config.yml.
type GlobalConfig struct {
	WorkspacePath string `yaml:"workspace_path,omitempty"` // Used when no workspace is found upward
	OllamaURL     string `yaml:"ollama_url,omitempty"`
	LogMode       string `yaml:"log_mode,omitempty"`  // dev, debug, or prod
	HTTPAddr      string `yaml:"http_addr,omitempty"` // Listen address for `lp serve`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "lp"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DefaultHTTPAddr is the listen address when none is configured.
	DefaultHTTPAddr = "127.0.0.1:8080"
)

var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/lp/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandPath(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetHTTPAddr returns the configured listen address or the default.
func GetHTTPAddr() string {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.HTTPAddr == "" {
		return DefaultHTTPAddr
	}
	return cfg.HTTPAddr
}

// GetLogMode returns the configured log mode, empty if unset.
func GetLogMode() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.LogMode
}

// GetOllamaURL returns the globally configured Ollama URL, empty if unset.
func GetOllamaURL() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.OllamaURL
}

// HelpfulConfigMessage returns a hint for when no workspace is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No learnpath workspace found.

Run 'lp init' in a directory to create one, or create %s to set a default:
  mkdir -p %s
  echo 'workspace_path: /path/to/workspace' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
