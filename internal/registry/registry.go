// Package registry defines the static set of components that make up the
// stack. Adding a component means adding an entry here; the commands and
// the orchestrator never branch on individual component ids.
package registry

import (
	"fmt"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

// Well-known component ids, exposed for tests and log output only. No
// code outside this package may special-case them.
const (
	Ollama          = "ollama"
	Whisper         = "whisper"
	Piper           = "piper"
	OpenWebUI       = "open-webui"
	ComfyUI         = "comfyui"
	AssistantConfig = "assistant-config"
)

// Components returns the component registry in install order. Stop and
// clean iterate it in reverse so dependents go down before the services
// they point at.
func Components(cfg *config.Config) []models.ComponentSpec {
	return []models.ComponentSpec{
		{
			ID:         Ollama,
			Kind:       models.KindBinary,
			BinaryName: "ollama",
			Daemon:     true,
			DaemonArgs: []string{"serve"},
			ArchiveURLs: map[models.Architecture]string{
				models.ArchAMD64: "https://ollama.com/download/ollama-linux-amd64.tgz",
				models.ArchARM64: "https://ollama.com/download/ollama-linux-arm64.tgz",
			},
			Env: map[string]string{
				"OLLAMA_MODELS": cfg.Paths.ModelDir("language"),
				"OLLAMA_HOST":   fmt.Sprintf("127.0.0.1:%d", cfg.Ollama.Port),
			},
			Ports: []models.PortBinding{
				{HostPort: cfg.Ollama.Port, ContainerPort: 0},
			},
		},
		{
			ID:         Whisper,
			Kind:       models.KindBinary,
			BinaryName: "whisper-server",
			ArchiveURLs: map[models.Architecture]string{
				models.ArchAMD64: "https://github.com/ggerganov/whisper.cpp/releases/download/v1.7.4/whisper-blas-bin-x64.zip",
			},
		},
		{
			ID:         Piper,
			Kind:       models.KindBinary,
			BinaryName: "piper",
			ArchiveURLs: map[models.Architecture]string{
				models.ArchAMD64: "https://github.com/rhasspy/piper/releases/download/2023.11.14-2/piper_linux_x86_64.tar.gz",
				models.ArchARM64: "https://github.com/rhasspy/piper/releases/download/2023.11.14-2/piper_linux_aarch64.tar.gz",
				models.ArchARMv7: "https://github.com/rhasspy/piper/releases/download/2023.11.14-2/piper_linux_armv7l.tar.gz",
			},
		},
		{
			ID:            OpenWebUI,
			Kind:          models.KindContainer,
			Image:         "ghcr.io/open-webui/open-webui:main",
			ContainerName: "stackpilot-open-webui",
			Ports: []models.PortBinding{
				{HostPort: cfg.WebUI.Port, ContainerPort: 8080},
			},
			Binds: []string{
				cfg.Paths.DataDir + ":/app/backend/data",
			},
			Env: map[string]string{
				"OLLAMA_BASE_URL": fmt.Sprintf("http://host.docker.internal:%d", cfg.Ollama.Port),
			},
			ExtraHosts: []string{"host.docker.internal:host-gateway"},
		},
		{
			ID:            ComfyUI,
			Kind:          models.KindContainer,
			Image:         "yanwk/comfyui-boot:cu124-slim",
			ContainerName: "stackpilot-comfyui",
			Ports: []models.PortBinding{
				{HostPort: cfg.ComfyUI.Port, ContainerPort: 8188},
			},
			Binds: []string{
				cfg.Paths.ModelDir("image") + ":/root/ComfyUI/models/checkpoints",
			},
			ExtraHosts: []string{"host.docker.internal:host-gateway"},
		},
		{
			ID:   AssistantConfig,
			Kind: models.KindConfig,
		},
	}
}
