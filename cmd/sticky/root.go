package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/sticky/internal/app"
	"github.com/five82/sticky/internal/logging"
)

var opts app.Options

var rootCmd = &cobra.Command{
	Use:   "sticky",
	Short: "Sticky notes in the terminal",
	Long: `sticky keeps a small set of notes in a window that can stay on top,
saving every edit shortly after you stop typing.

Without a subcommand it runs the notes window and its host in one process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), opts)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/sticky/config.toml)")
	flags.StringVar(&opts.Store, "store", "", "storage backend: file, sqlite or memory")
	flags.StringVar(&opts.Socket, "socket", "", "host socket path")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
}
