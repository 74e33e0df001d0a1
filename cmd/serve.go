package cmd

import (
	"github.com/jsphweid/midistates/reference"
	"github.com/jsphweid/midistates/server"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the analysis over HTTP",
	Long:  `POST /analyze with a MIDI file as body (query: subject, block) returns its labelled transitions. GET /reference returns the reference data.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		addr := cfg.ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		s := server.New(reference.Default(), logger, cfg.MaxUploadBytes)
		return s.ListenAndServe(cmd.Context(), addr)
	},
}
