package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the base name of the configuration file, without extension.
const FileName = "ocsetup"

// EnvPrefix prefixes environment overrides, e.g. OCSETUP_GIT_COMMIT.
const EnvPrefix = "OCSETUP"

// Config holds all configuration for ocsetup
type Config struct {
	Manifest ManifestConfig `mapstructure:"manifest" json:"manifest"`
	JSON     JSONConfig     `mapstructure:"json" json:"json"`
	Targets  TargetsConfig  `mapstructure:"targets" json:"targets"`
	Git      GitConfig      `mapstructure:"git" json:"git"`
}

// ManifestConfig describes the install hook added to package.json
type ManifestConfig struct {
	HookCommand string `mapstructure:"hook_command" json:"hook_command"`
	HookPackage string `mapstructure:"hook_package" json:"hook_package"`
	HookVersion string `mapstructure:"hook_version" json:"hook_version"`
}

// JSONConfig holds structured-file writer options
type JSONConfig struct {
	DefaultIndent string `mapstructure:"default_indent" json:"default_indent"`
}

// TargetsConfig toggles the optional files touched during setup
type TargetsConfig struct {
	Manifest            bool `mapstructure:"manifest" json:"manifest"`
	Contributing        bool `mapstructure:"contributing" json:"contributing"`
	IssueTemplate       bool `mapstructure:"issue_template" json:"issue_template"`
	PullRequestTemplate bool `mapstructure:"pull_request_template" json:"pull_request_template"`
	Funding             bool `mapstructure:"funding" json:"funding"`
}

// GitConfig controls committing the changed files
type GitConfig struct {
	Commit      bool   `mapstructure:"commit" json:"commit"`
	AuthorName  string `mapstructure:"author_name" json:"author_name"`
	AuthorEmail string `mapstructure:"author_email" json:"author_email"`
}

var defaultConfig = Config{
	Manifest: ManifestConfig{
		HookCommand: "opencollective-postinstall",
		HookPackage: "opencollective-postinstall",
		HookVersion: "^2.0.2",
	},
	JSON: JSONConfig{DefaultIndent: "  "},
	Targets: TargetsConfig{
		Manifest:            true,
		Contributing:        true,
		IssueTemplate:       true,
		PullRequestTemplate: false,
		Funding:             true,
	},
	Git: GitConfig{
		Commit:      false,
		AuthorName:  "ocsetup",
		AuthorEmail: "bot@opencollective.com",
	},
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	c := defaultConfig
	return &c
}

// LoadConfig loads configuration from defaults, the first ocsetup.yaml found
// in the search paths, and OCSETUP_* environment variables.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration like LoadConfig. A non-empty configFile is used
// instead of the search paths and must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("manifest.hook_command", defaultConfig.Manifest.HookCommand)
	v.SetDefault("manifest.hook_package", defaultConfig.Manifest.HookPackage)
	v.SetDefault("manifest.hook_version", defaultConfig.Manifest.HookVersion)
	v.SetDefault("json.default_indent", defaultConfig.JSON.DefaultIndent)
	v.SetDefault("targets.manifest", defaultConfig.Targets.Manifest)
	v.SetDefault("targets.contributing", defaultConfig.Targets.Contributing)
	v.SetDefault("targets.issue_template", defaultConfig.Targets.IssueTemplate)
	v.SetDefault("targets.pull_request_template", defaultConfig.Targets.PullRequestTemplate)
	v.SetDefault("targets.funding", defaultConfig.Targets.Funding)
	v.SetDefault("git.commit", defaultConfig.Git.Commit)
	v.SetDefault("git.author_name", defaultConfig.Git.AuthorName)
	v.SetDefault("git.author_email", defaultConfig.Git.AuthorEmail)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %w", ErrInvalidConfig, err)
	}
	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SearchPaths lists the directories searched for ocsetup.yaml, in order.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, FileName))
	}
	return paths
}
