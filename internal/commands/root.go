package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/internal/hostinfo"
	"evalgo.org/stackpilot/internal/orchestration"
	"evalgo.org/stackpilot/internal/provision"
	"evalgo.org/stackpilot/internal/registry"
	"evalgo.org/stackpilot/internal/selection"
	"evalgo.org/stackpilot/internal/verify"
	"evalgo.org/stackpilot/internal/version"
	"evalgo.org/stackpilot/models"
)

var (
	cfgFile   string
	assumeYes bool
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stackpilot",
	Short: "Your Personal AI Stack, Installed in One Command",
	Long: `StackPilot installs and manages a local AI assistant stack: an LLM
runtime, speech engines, a chat UI, an image generation service and the
configuration tying them together.

It detects your hardware, picks fitting model variants and keeps every
operation safe to re-run.`,
	Version: version.Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.stackpilot/config.yaml)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(reinstallCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

// newOrchestrator wires the registry, backends and engines for one
// command invocation.
func newOrchestrator() *orchestration.Orchestrator {
	profiler := hostinfo.New()
	arch := profiler.Profile().Architecture

	var backends []provision.Backend
	for _, spec := range registry.Components(cfg) {
		switch spec.Kind {
		case models.KindBinary:
			backends = append(backends, provision.NewBinaryBackend(spec, cfg.Paths, arch))
		case models.KindContainer:
			backends = append(backends, provision.NewContainerBackend(spec, provision.LocalDockerClient))
		case models.KindConfig:
			backends = append(backends, provision.NewConfigFileBackend(spec, cfg))
		}
	}

	confirm := promptConfirmer
	if assumeYes {
		confirm = func(string) bool { return true }
	}

	return orchestration.New(orchestration.Options{
		Backends: backends,
		Profiler: profiler,
		Policy:   selection.Select,
		Verifier: verify.New(backends),
		Confirm:  confirm,
		Paths:    cfg.Paths,
		Out:      os.Stdout,
	})
}

// promptConfirmer asks on the terminal. Anything but an explicit yes
// declines.
func promptConfirmer(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Println(info.String())

		if cmd.Flag("verbose").Changed {
			fmt.Printf("\nDetails:\n")
			fmt.Printf("  Version:    %s\n", info.Version)
			fmt.Printf("  Git Commit: %s\n", info.GitCommit)
			fmt.Printf("  Built:      %s\n", info.BuildTime)
			fmt.Printf("  Go Version: %s\n", info.GoVersion)
			fmt.Printf("  Platform:   %s\n", info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "verbose version output")
}
