package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the long-running components",
	Long: `Start daemons and containers in registry order. Components that are
already running are left alone; the generated configuration has nothing
to start and is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := newOrchestrator()
		return o.Start(cmd.Context())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the long-running components",
	Long: `Stop containers and daemons in reverse registry order, so dependents
go down before the services they talk to. Already-stopped components
are not errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := newOrchestrator()
		return o.Stop(cmd.Context())
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify the installed stack",
	Long: `Run every verification check: installation predicates, process and
container liveness, and live reachability probes against each
network-exposed endpoint. Read-only; exits non-zero when any check
fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Running stack verification...")
		fmt.Println()

		o := newOrchestrator()
		_, err := o.Test(cmd.Context())
		return err
	},
}
