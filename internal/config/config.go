// Package config provides configuration management for StackPilot.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with SP_ prefix)
//   - Default values
//
// Configuration is loaded in the following order (later sources override
// earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./stackpilot.yaml, ~/.stackpilot/config.yaml)
//  3. Environment variables (SP_ prefix)
//
// Environment variables use the SP_ prefix with underscores for nested
// keys:
//   - SP_OLLAMA_PORT=11434
//   - SP_USER_NAME="Ada Lovelace"
//   - SP_TELEMETRY_ENABLED=false
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the root configuration structure for StackPilot.
type Config struct {
	// Paths contains the filesystem layout of the installed stack
	Paths Paths `mapstructure:"paths"`

	// Ollama contains settings for the LLM runtime daemon
	Ollama OllamaConfig `mapstructure:"ollama"`

	// WebUI contains settings for the chat UI container
	WebUI WebUIConfig `mapstructure:"webui"`

	// ComfyUI contains settings for the image generation container
	ComfyUI ComfyUIConfig `mapstructure:"comfyui"`

	// User contains the identity rendered into the assistant config
	User UserConfig `mapstructure:"user"`

	// Telemetry contains the opt-in telemetry switch
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Theme is the assistant UI theme
	Theme string `mapstructure:"theme"`

	// Editor is the preferred text editor
	Editor string `mapstructure:"editor"`
}

// Paths describes the XDG-style filesystem layout used by all backends.
// Every field is an absolute path once Load has run.
type Paths struct {
	// BinDir is where standalone binaries are installed
	BinDir string `mapstructure:"bin_dir" validate:"required"`

	// ConfigDir holds the generated assistant config document
	ConfigDir string `mapstructure:"config_dir" validate:"required"`

	// ModelsDir is the root of the model store, subdivided by category
	ModelsDir string `mapstructure:"models_dir" validate:"required"`

	// DataDir is the persisted volume for the stateful chat UI container
	DataDir string `mapstructure:"data_dir" validate:"required"`

	// LauncherDir is where the desktop launcher descriptor is written
	LauncherDir string `mapstructure:"launcher_dir" validate:"required"`

	// ShellProfile is the shell profile file that receives the PATH line
	ShellProfile string `mapstructure:"shell_profile"`

	// RunDir holds pidfiles for daemon binaries started by stackpilot
	RunDir string `mapstructure:"run_dir" validate:"required"`
}

// OllamaConfig contains settings for the LLM runtime daemon.
type OllamaConfig struct {
	// Port is the local port the daemon serves its API on
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// WebUIConfig contains settings for the chat UI container.
type WebUIConfig struct {
	// Port is the published host port
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// ComfyUIConfig contains settings for the image generation container.
type ComfyUIConfig struct {
	// Port is the published host port
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// UserConfig contains the identity rendered into the assistant config.
type UserConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email" validate:"omitempty,email"`
}

// TelemetryConfig contains the telemetry switch.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ConfigFile returns the path of the generated assistant config document.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.json")
}

// LauncherFile returns the path of the desktop launcher descriptor.
func (p Paths) LauncherFile() string {
	return filepath.Join(p.LauncherDir, "stackpilot.desktop")
}

// ModelDir returns the model store directory for one category
// (language, image, voice).
func (p Paths) ModelDir(category string) string {
	return filepath.Join(p.ModelsDir, category)
}

// ModelCategories are the subdirectories of the model store root.
var ModelCategories = []string{"language", "image", "voice"}

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SP_ prefix)
//  2. Configuration file
//  3. Default values
func Load(cfgFile string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("unable to resolve home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".stackpilot"))
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("paths.bin_dir", filepath.Join(home, ".local", "bin"))
	v.SetDefault("paths.config_dir", filepath.Join(home, ".config", "stackpilot"))
	v.SetDefault("paths.models_dir", filepath.Join(home, ".local", "share", "stackpilot", "models"))
	v.SetDefault("paths.data_dir", filepath.Join(home, ".local", "share", "stackpilot", "open-webui"))
	v.SetDefault("paths.launcher_dir", filepath.Join(home, ".local", "share", "applications"))
	v.SetDefault("paths.shell_profile", filepath.Join(home, ".bashrc"))
	v.SetDefault("paths.run_dir", filepath.Join(home, ".local", "share", "stackpilot", "run"))

	v.SetDefault("ollama.port", 11434)
	v.SetDefault("webui.port", 3000)
	v.SetDefault("comfyui.port", 7860)

	v.SetDefault("user.name", "")
	v.SetDefault("user.email", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("theme", "dark")
	v.SetDefault("editor", "vi")
}
