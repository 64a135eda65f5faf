package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

// assistantConfig is the generated configuration document consumed by
// the assistant tooling. Field order is fixed, so rendering the same
// plan and settings always produces byte-identical output.
type assistantConfig struct {
	LLM struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
		BaseURL  string `json:"base_url"`
		Model    string `json:"model"`
	} `json:"llm"`
	ImageGenerator struct {
		Provider string `json:"provider"`
		BaseURL  string `json:"base_url"`
		Model    string `json:"model"`
	} `json:"image_generator"`
	Features struct {
		ImageGeneration bool `json:"image_generation"`
		Voice           struct {
			Enabled bool   `json:"enabled"`
			Model   string `json:"model"`
		} `json:"voice"`
	} `json:"features"`
	User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Telemetry struct {
		Enabled bool `json:"enabled"`
	} `json:"telemetry"`
	Theme           string `json:"theme"`
	Editor          string `json:"editor"`
	ProjectDefaults struct {
		ModelsDir string `json:"models_dir"`
	} `json:"project_defaults"`
}

// ConfigFileBackend renders the assistant configuration document and the
// desktop launcher descriptor. Regeneration is idempotent: the same plan
// and settings produce byte-identical files, and overwriting is always
// allowed.
type ConfigFileBackend struct {
	spec models.ComponentSpec
	cfg  *config.Config
}

// NewConfigFileBackend returns a backend for the generated config files.
func NewConfigFileBackend(spec models.ComponentSpec, cfg *config.Config) *ConfigFileBackend {
	return &ConfigFileBackend{spec: spec, cfg: cfg}
}

func (c *ConfigFileBackend) Spec() models.ComponentSpec { return c.spec }

// IsInstalled reports whether both generated files exist.
func (c *ConfigFileBackend) IsInstalled(ctx context.Context) bool {
	for _, path := range []string{c.cfg.Paths.ConfigFile(), c.cfg.Paths.LauncherFile()} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// IsRunning is always false: generated files have no process.
func (c *ConfigFileBackend) IsRunning(ctx context.Context) bool { return false }

// Install renders both files. When the on-disk content already matches
// the current render the component is skipped; otherwise the files are
// overwritten.
func (c *ConfigFileBackend) Install(ctx context.Context, plan models.Plan) models.InstallResult {
	configDoc, err := c.renderConfig(plan)
	if err != nil {
		return failedResultf(c.spec, "failed to render config: %w", err)
	}
	launcher := c.renderLauncher()

	if fileMatches(c.cfg.Paths.ConfigFile(), configDoc) && fileMatches(c.cfg.Paths.LauncherFile(), launcher) {
		return skippedResult(c.spec, "configuration up to date")
	}

	if err := writeFileMkdir(c.cfg.Paths.ConfigFile(), configDoc, 0o644); err != nil {
		return failedResult(c.spec, err)
	}
	if err := writeFileMkdir(c.cfg.Paths.LauncherFile(), launcher, 0o644); err != nil {
		return failedResult(c.spec, err)
	}

	if !c.IsInstalled(ctx) {
		return failedResult(c.spec, ErrPostInstallCheck)
	}
	return installedResult(c.spec, "wrote "+c.cfg.Paths.ConfigFile())
}

// Remove deletes both generated files. Absent files are success.
func (c *ConfigFileBackend) Remove(ctx context.Context) error {
	for _, path := range []string{c.cfg.Paths.ConfigFile(), c.cfg.Paths.LauncherFile()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// Start is a no-op for the config kind.
func (c *ConfigFileBackend) Start(ctx context.Context) error { return nil }

// Stop is a no-op for the config kind.
func (c *ConfigFileBackend) Stop(ctx context.Context) error { return nil }

// renderConfig expands the current plan and static user settings into
// the assistant config document.
func (c *ConfigFileBackend) renderConfig(plan models.Plan) ([]byte, error) {
	doc := assistantConfig{}

	doc.LLM.Provider = "ollama"
	doc.LLM.APIKey = ""
	doc.LLM.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.cfg.Ollama.Port)
	doc.LLM.Model = plan.LanguageModel

	doc.ImageGenerator.Provider = "comfyui"
	doc.ImageGenerator.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.cfg.ComfyUI.Port)
	doc.ImageGenerator.Model = plan.ImageModel

	doc.Features.ImageGeneration = true
	doc.Features.Voice.Enabled = true
	doc.Features.Voice.Model = plan.VoiceModel

	doc.User.Name = c.cfg.User.Name
	doc.User.Email = c.cfg.User.Email
	doc.Telemetry.Enabled = c.cfg.Telemetry.Enabled
	doc.Theme = c.cfg.Theme
	doc.Editor = c.cfg.Editor
	doc.ProjectDefaults.ModelsDir = c.cfg.Paths.ModelsDir

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// renderLauncher produces the desktop launcher descriptor pointing at
// the chat UI.
func (c *ConfigFileBackend) renderLauncher() []byte {
	return []byte(fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=StackPilot
Comment=Local AI assistant stack
Exec=xdg-open http://localhost:%d
Icon=applications-science
Terminal=false
Categories=Utility;
`, c.cfg.WebUI.Port))
}

func fileMatches(path string, content []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, content)
}

func writeFileMkdir(path string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
