// Package stackpilot installs and manages a local AI assistant stack.
//
// # Overview
//
// StackPilot detects the machine's hardware, selects the model tier that
// fits it, and provisions everything the assistant needs on a single
// workstation: native binaries, Docker containers, and the assistant's
// own configuration files.
//
// The stack consists of six components, always handled in the same order:
//   - ollama: language model server (binary daemon)
//   - whisper: speech-to-text engine (binary)
//   - piper: text-to-speech engine (binary)
//   - open-webui: chat front end (container)
//   - comfyui: image generation (container)
//   - assistant-config: generated configuration and desktop launcher
//
// # Architecture
//
//	┌─────────────────┐
//	│  CLI Commands   │
//	│    (Cobra)      │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Orchestrator   │◄──────┤  Host Profiler  │
//	│ (install/clean) │       │ (arch + GPU)    │
//	└────────┬────────┘       └─────────────────┘
//	         │
//	┌────────▼────────┐
//	│    Backends     │
//	│ binary/container│
//	│    /config      │
//	└─────────────────┘
//
// # Usage
//
// Install the full stack:
//
//	stackpilot install
//
// Check what is installed and running:
//
//	stackpilot status
//
// Verify every component end to end:
//
//	stackpilot test
//
// Remove everything, models included:
//
//	stackpilot clean --yes
//
// # Configuration
//
// Configuration can be provided via:
//   - JSON or YAML file (~/.stackpilot/config.yaml, or --config)
//   - Environment variables (SP_ prefix)
//
// Example configuration:
//
//	ollama:
//	  port: 11434
//	webui:
//	  port: 3000
//	comfyui:
//	  port: 7860
//	user:
//	  name: Jane
//	  email: jane@example.com
//	theme: dark
//
// # Development
//
// Run tests:
//
//	go test ./...
//
// Build the binary:
//
//	go build -o stackpilot ./cmd/stackpilot
//
// # Technology Stack
//
//   - Go 1.25+
//   - Cobra (CLI framework)
//   - Viper (Configuration)
//   - Docker API (Container runtime)
//
// # License
//
// StackPilot is open source software.
package stackpilot
