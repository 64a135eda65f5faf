package registry

import (
	"strings"
	"testing"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Paths: config.Paths{
			BinDir:      "/home/u/.local/bin",
			ConfigDir:   "/home/u/.config/stackpilot",
			ModelsDir:   "/home/u/.local/share/stackpilot/models",
			DataDir:     "/home/u/.local/share/stackpilot/open-webui",
			LauncherDir: "/home/u/.local/share/applications",
			RunDir:      "/home/u/.local/share/stackpilot/run",
		},
		Ollama:  config.OllamaConfig{Port: 11434},
		WebUI:   config.WebUIConfig{Port: 3000},
		ComfyUI: config.ComfyUIConfig{Port: 7860},
	}
}

func TestRegistryOrder(t *testing.T) {
	specs := Components(testConfig())

	want := []string{Ollama, Whisper, Piper, OpenWebUI, ComfyUI, AssistantConfig}
	if len(specs) != len(want) {
		t.Fatalf("expected %d components, got %d", len(want), len(specs))
	}
	for i, id := range want {
		if specs[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, specs[i].ID)
		}
	}
}

func TestRegistryKinds(t *testing.T) {
	specs := Components(testConfig())

	counts := map[models.ComponentKind]int{}
	for _, s := range specs {
		counts[s.Kind]++
	}
	if counts[models.KindBinary] != 3 {
		t.Errorf("expected 3 binary components, got %d", counts[models.KindBinary])
	}
	if counts[models.KindContainer] != 2 {
		t.Errorf("expected 2 container components, got %d", counts[models.KindContainer])
	}
	if counts[models.KindConfig] != 1 {
		t.Errorf("expected 1 config component, got %d", counts[models.KindConfig])
	}
}

func TestRegistryContainerIntegration(t *testing.T) {
	specs := Components(testConfig())

	for _, s := range specs {
		if s.Kind != models.KindContainer {
			continue
		}
		if s.Image == "" || s.ContainerName == "" {
			t.Errorf("%s: container spec missing image or name", s.ID)
		}
		if len(s.Ports) == 0 {
			t.Errorf("%s: container publishes no port", s.ID)
		}
		if len(s.Binds) != 1 {
			t.Errorf("%s: expected one bind mount, got %d", s.ID, len(s.Binds))
		}
		found := false
		for _, h := range s.ExtraHosts {
			if strings.Contains(h, "host-gateway") {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: missing host-gateway alias", s.ID)
		}
	}
}

func TestRegistryDaemonEnv(t *testing.T) {
	specs := Components(testConfig())

	ollama := specs[0]
	if !ollama.Daemon {
		t.Fatal("ollama must be a daemon")
	}
	if got := ollama.Env["OLLAMA_MODELS"]; got != "/home/u/.local/share/stackpilot/models/language" {
		t.Errorf("unexpected OLLAMA_MODELS %q", got)
	}
	if ollama.Port() != 11434 {
		t.Errorf("unexpected ollama port %d", ollama.Port())
	}
}

func TestRegistryArchCoverage(t *testing.T) {
	specs := Components(testConfig())

	for _, s := range specs {
		if s.Kind != models.KindBinary {
			continue
		}
		if _, ok := s.ArchiveURLs[models.ArchAMD64]; !ok {
			t.Errorf("%s: no amd64 download", s.ID)
		}
	}
}
