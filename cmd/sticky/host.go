package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sticky/internal/app"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the window host as a daemon on a Unix socket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Serve(cmd.Context(), opts)
	},
}

var attachWait time.Duration

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Open the notes window against a running host",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Attach(cmd.Context(), opts, attachWait)
	},
}

func init() {
	attachCmd.Flags().DurationVar(&attachWait, "wait", 3*time.Second, "how long to wait for the host socket")
	rootCmd.AddCommand(hostCmd, attachCmd)
}
