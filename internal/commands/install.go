package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the full stack",
	Long: `Detect the host hardware, select fitting model variants and install
every component of the stack: binaries, containers and configuration.

Already-installed components are skipped, so install is safe to re-run
after a partial failure. The command finishes with a verification pass
and exits non-zero when any component failed or a check did not pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("🚀 Installing the StackPilot stack")
		fmt.Println()

		o := newOrchestrator()
		_, _, err := o.Install(cmd.Context())
		return err
	},
}
