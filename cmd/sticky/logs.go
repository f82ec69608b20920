package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/sticky/internal/app"
	"github.com/five82/sticky/internal/logtail"
)

var (
	logsLines     int
	logsLevel     string
	logsComponent string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the end of the sticky log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := logtail.Filter{Component: logsComponent}
		if logsLevel != "" {
			level, err := logrus.ParseLevel(logsLevel)
			if err != nil {
				return err
			}
			filter.MinLevel = level
		}
		return app.Logs(opts, logsLines, filter, cmd.OutOrStdout())
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level (debug, info, warn, error)")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "only show one component, e.g. autosave")
	rootCmd.AddCommand(logsCmd)
}
