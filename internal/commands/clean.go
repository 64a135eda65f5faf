package commands

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all installed components and data",
	Long: `Remove every installed component, all downloaded models and all
persisted data. Asks for confirmation first; declining is a no-op, not
an error. Absent resources are skipped silently, so clean can be run
any number of times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := newOrchestrator()
		_, err := o.Clean(cmd.Context())
		return err
	},
}

var reinstallCmd = &cobra.Command{
	Use:   "reinstall",
	Short: "Clean and install from scratch",
	Long:  `Run clean (with confirmation) followed immediately by install.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := newOrchestrator()
		return o.Reinstall(cmd.Context())
	},
}

func init() {
	cleanCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	reinstallCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}
