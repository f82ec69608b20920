package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/sticky/internal/app"
	"github.com/five82/sticky/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export notes as YAML or Markdown files",
	Example: `  sticky export > notes.yaml
  sticky export --format md --out ~/notes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		return app.Export(cmd.Context(), opts, format, exportOut, cmd.OutOrStdout())
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the stored notes document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Schema(cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "yaml or markdown")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "directory for markdown files")
	rootCmd.AddCommand(exportCmd, schemaCmd)
}
