// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfsum/internal/coordinator"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan your linked drive for new PDFs",
	Long: `Scan asks the server to look for PDFs in your linked drive that have not
been summarized yet and to summarize them. Finding nothing new is not an
error. A scan can take several minutes; it is never retried automatically.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(appConfig, log)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.loadBestEffort(ctx)

	sc := coordinator.NewScan(a.repo, a.store,
		coordinator.WithLogger(a.log),
		coordinator.WithRefresher(a.loader),
	)
	fmt.Fprintln(cmd.ErrOrStderr(), "Scanning drive...")

	st, err := sc.Run(ctx)
	if err != nil {
		return a.describe(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, st.Message)
	for _, f := range st.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}
