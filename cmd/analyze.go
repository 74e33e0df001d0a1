package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/jsphweid/midistates/file"
	"github.com/jsphweid/midistates/pipeline"
	"github.com/jsphweid/midistates/reference"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	workers    int
)

func init() {
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output table (default: next to the data folder)")
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "recordings decoded in parallel")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [start_path]",
	Short: "Analyses every recording in the data folder",
	Long:  `Locates the data folder from start_path (default: current directory), analyses every recording below it and writes one transition table.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := "."
		if len(args) == 1 {
			start = args[0]
		}
		return analyze(cmd, start)
	},
}

func analyze(cmd *cobra.Command, start string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()

	root, err := file.FindDataFolder(start, cfg.DataFolder)
	if err != nil {
		if errors.Is(err, file.ErrDataFolderNotFound) {
			fmt.Fprintf(out, "✗ data folder %q not found from %s\n", cfg.DataFolder, start)
		}
		return err
	}
	fmt.Fprintf(out, "✓ located data folder: %s\n", root)

	output := filepath.Join(filepath.Dir(root), cfg.OutputName)
	if cmd.Flags().Changed("output") {
		output = outputPath
	}

	analyzer := pipeline.New(reference.Default(), pipeline.WithLogger(logger), pipeline.WithWorkers(cfg.Workers))
	res, err := analyzer.Run(cmd.Context(), root, output)
	if errors.Is(err, pipeline.ErrNoData) {
		fmt.Fprintln(out, "no data found, nothing written")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ analysis complete: %d rows from %d files (%d skipped) written to %s\n",
		len(res.Rows), res.Files-len(res.Failures), len(res.Failures), output)
	return nil
}
