// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfsum/internal/coordinator"
	"github.com/pdiddy/pdfsum/pkg/types"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete summaries by id",
	Long: `Delete removes each summary from the server. A summary leaves your local
view only after the server confirms the deletion; ids are processed one at
a time, in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	failed := a.deleteIDs(ctx, args, cmd.OutOrStdout())
	if failed > 0 {
		return fmt.Errorf("%d of %d delete(s) failed", failed, len(args))
	}
	return nil
}

// deleteIDs deletes ids one at a time and returns the number that failed.
func (a *app) deleteIDs(ctx context.Context, ids []string, out io.Writer) int {
	del := coordinator.NewDelete(a.repo, a.store, coordinator.WithLogger(a.log))

	failed := 0
	for _, raw := range ids {
		st, err := del.Run(ctx, types.SummaryID(raw))
		if err != nil {
			failed++
			fmt.Fprintf(out, "failed  %s: %s\n", raw, a.describe(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintln(out, st.Message)
	}
	return failed
}
