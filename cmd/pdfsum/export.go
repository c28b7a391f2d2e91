// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfsum/internal/collection"
	"github.com/pdiddy/pdfsum/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export summaries to YAML or JSON",
	Long: `Export writes your summaries (or those matching a query) as a YAML or
JSON document, to stdout or to the file given with --output.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().StringP("query", "q", "", "export only summaries matching this text")
	exportCmd.Flags().Bool("offline", false, "export the cached snapshot without contacting the server")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	a, err := newApp(appConfig, log)
	if err != nil {
		return err
	}
	defer a.close()

	offline, _ := cmd.Flags().GetBool("offline")
	all, err := a.fetchSummaries(cmd.Context(), offline)
	if err != nil {
		return err
	}

	query := queryFromFlags(cmd, args)
	doc := export.NewDocument(collection.Filter(all, query), a.baseURL, query)

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return export.Write(cmd.OutOrStdout(), format, doc)
	}
	if err := export.WriteFile(output, format, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d summaries to %s\n", doc.Count, output)
	return nil
}
