package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every component",
	Long: `Report per-component installation and running state, derived live
from the filesystem and the container runtime, plus counts of
downloaded model artifacts by category. Read-only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := newOrchestrator()
		snapshot := o.Status(cmd.Context())

		switch outputFormat {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(snapshot)
		case "yaml":
			encoder := yaml.NewEncoder(os.Stdout)
			defer encoder.Close()
			return encoder.Encode(snapshot)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMPONENT\tKIND\tINSTALLED\tRUNNING")
		for _, c := range snapshot.Components {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Component, c.Kind, yesNo(c.Installed), yesNo(c.Running))
		}
		w.Flush()

		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODELS\tCOUNT\tSIZE")
		for _, category := range []string{"language", "image", "voice"} {
			stats := snapshot.Models[category]
			fmt.Fprintf(w, "%s\t%d\t%s\n", category, stats.Count, humanSize(stats.SizeBytes))
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
