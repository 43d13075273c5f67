package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lpforge/internal/builder"
	"lpforge/internal/dialect"
	"lpforge/internal/logging"
	"lpforge/internal/mutate"
)

type Config struct {
	URL             string `json:"url,omitempty" yaml:"url,omitempty"`
	Input           string `json:"input,omitempty" yaml:"input,omitempty"`
	Mode            string `json:"mode,omitempty" yaml:"mode,omitempty"`
	OutputDir       string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	UserAgent       string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	WaitForSelector string `json:"wait_for,omitempty" yaml:"wait_for,omitempty"`
	Headless        *bool  `json:"headless,omitempty" yaml:"headless,omitempty"`
	Strict          bool   `json:"strict,omitempty" yaml:"strict,omitempty"`
	DownloadAssets  bool   `json:"download_assets,omitempty" yaml:"download_assets,omitempty"`
	UseCache        bool   `json:"use_cache,omitempty" yaml:"use_cache,omitempty"`
	StripSelector   string `json:"strip_selector,omitempty" yaml:"strip_selector,omitempty"`
	MaxChars        int    `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`
	MaxTokens       int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	Logging    logging.Config     `json:"logging,omitempty" yaml:"logging,omitempty"`
	Heuristics dialect.Heuristics `json:"heuristics,omitempty" yaml:"heuristics,omitempty"`
	Dialect    dialect.Dialect    `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Mutation   mutate.Config      `json:"mutation,omitempty" yaml:"mutation,omitempty"`
	Build      builder.Config     `json:"build,omitempty" yaml:"build,omitempty"`

	// Post-processing pipeline hooks
	PipelineHooks []string `json:"pipeline_hooks,omitempty" yaml:"pipeline_hooks,omitempty"`
	PostCommands  []string `json:"post_commands,omitempty" yaml:"post_commands,omitempty"`
}

// Load reads a JSON config, or YAML when the file ends in .yaml or .yml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if IsYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Marshal(cfg Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// MarshalFor encodes cfg in the format implied by path.
func MarshalFor(path string, cfg Config) ([]byte, error) {
	if IsYAML(path) {
		return yaml.Marshal(cfg)
	}
	return Marshal(cfg)
}

func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
