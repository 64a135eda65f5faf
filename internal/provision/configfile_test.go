package provision

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Paths:     testPaths(t),
		Ollama:    config.OllamaConfig{Port: 11434},
		WebUI:     config.WebUIConfig{Port: 3000},
		ComfyUI:   config.ComfyUIConfig{Port: 7860},
		User:      config.UserConfig{Name: "Ada Lovelace", Email: "ada@example.com"},
		Telemetry: config.TelemetryConfig{Enabled: false},
		Theme:     "dark",
		Editor:    "vi",
	}
}

func configBackend(t *testing.T) *ConfigFileBackend {
	spec := models.ComponentSpec{ID: "assistant-config", Kind: models.KindConfig}
	return NewConfigFileBackend(spec, testConfig(t))
}

var testPlan = models.Plan{
	LanguageModel: "llama3.2:3b-instruct-q4_K_M",
	ImageModel:    "sd-turbo.safetensors",
	VoiceModel:    "en_US-lessac-low",
}

func TestConfigInstallRendersDocument(t *testing.T) {
	b := configBackend(t)
	ctx := context.Background()

	result := b.Install(ctx, testPlan)
	if result.Action != models.ActionInstalled {
		t.Fatalf("expected installed, got %s (%s)", result.Action, result.Detail)
	}
	if !b.IsInstalled(ctx) {
		t.Fatal("predicate should hold after install")
	}

	data, err := os.ReadFile(b.cfg.Paths.ConfigFile())
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated config is not valid JSON: %v", err)
	}

	for _, key := range []string{"llm", "image_generator", "features", "user", "telemetry", "theme", "editor", "project_defaults"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("generated config missing key %q", key)
		}
	}

	llm := doc["llm"].(map[string]interface{})
	if llm["model"] != testPlan.LanguageModel {
		t.Errorf("expected llm model %s, got %v", testPlan.LanguageModel, llm["model"])
	}
	if llm["base_url"] != "http://127.0.0.1:11434" {
		t.Errorf("unexpected llm base_url %v", llm["base_url"])
	}
}

func TestConfigInstallIdempotence(t *testing.T) {
	b := configBackend(t)
	ctx := context.Background()

	if r := b.Install(ctx, testPlan); r.Action != models.ActionInstalled {
		t.Fatalf("first install: expected installed, got %s", r.Action)
	}

	before, _ := os.ReadFile(b.cfg.Paths.ConfigFile())

	if r := b.Install(ctx, testPlan); r.Action != models.ActionSkipped {
		t.Fatalf("second install: expected skipped, got %s", r.Action)
	}

	after, _ := os.ReadFile(b.cfg.Paths.ConfigFile())
	if string(before) != string(after) {
		t.Error("re-install changed the generated config")
	}
}

// A changed plan regenerates the document: overwriting is always allowed.
func TestConfigInstallOverwritesOnPlanChange(t *testing.T) {
	b := configBackend(t)
	ctx := context.Background()

	b.Install(ctx, testPlan)

	changed := testPlan
	changed.LanguageModel = "llama3.1:8b-instruct-q8_0"
	if r := b.Install(ctx, changed); r.Action != models.ActionInstalled {
		t.Fatalf("expected installed after plan change, got %s", r.Action)
	}

	data, _ := os.ReadFile(b.cfg.Paths.ConfigFile())
	if !strings.Contains(string(data), "llama3.1:8b-instruct-q8_0") {
		t.Error("regenerated config does not reflect the new plan")
	}
}

func TestConfigRenderDeterminism(t *testing.T) {
	b := configBackend(t)

	first, err := b.renderConfig(testPlan)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := b.renderConfig(testPlan)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(first) != string(second) {
		t.Error("same inputs must render byte-identical output")
	}
}

func TestConfigLauncherWritten(t *testing.T) {
	b := configBackend(t)
	b.Install(context.Background(), testPlan)

	data, err := os.ReadFile(b.cfg.Paths.LauncherFile())
	if err != nil {
		t.Fatalf("launcher missing: %v", err)
	}
	if !strings.Contains(string(data), "[Desktop Entry]") {
		t.Error("launcher is not a desktop entry")
	}
	if !strings.Contains(string(data), "http://localhost:3000") {
		t.Error("launcher does not point at the chat UI port")
	}
}

func TestConfigRemoveIdempotence(t *testing.T) {
	b := configBackend(t)
	ctx := context.Background()

	if err := b.Remove(ctx); err != nil {
		t.Errorf("remove of absent files errored: %v", err)
	}

	b.Install(ctx, testPlan)
	if err := b.Remove(ctx); err != nil {
		t.Errorf("remove errored: %v", err)
	}
	if b.IsInstalled(ctx) {
		t.Error("predicate still holds after remove")
	}
}

func TestConfigStartStopNoOps(t *testing.T) {
	b := configBackend(t)
	if err := b.Start(context.Background()); err != nil {
		t.Errorf("start should be a no-op, got %v", err)
	}
	if err := b.Stop(context.Background()); err != nil {
		t.Errorf("stop should be a no-op, got %v", err)
	}
	if b.IsRunning(context.Background()) {
		t.Error("config kind must never report running")
	}
}
