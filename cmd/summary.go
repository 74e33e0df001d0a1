package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/jsphweid/midistates/file"
	"github.com/jsphweid/midistates/summary"
	"github.com/jsphweid/midistates/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary [table]",
	Short: "Describes transition times of an output table",
	Long:  `Reads an output table (default: the one next to the data folder found from the current directory) and prints transition time statistics per code, block type, block and frequency label.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			root, err := file.FindDataFolder(".", cfg.DataFolder)
			if err != nil {
				return err
			}
			path = filepath.Join(filepath.Dir(root), cfg.OutputName)
		}

		rows, err := table.ReadFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ loaded %d transitions from %s\n", len(rows), path)
		return summary.Write(out, summary.Summarize(rows))
	},
}
