// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfsum/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one summary with its key messages and source link",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().Bool("all", false, "show every key message")
	showCmd.Flags().Bool("json", false, "output the summary as JSON")
	showCmd.Flags().Bool("offline", false, "read the cached snapshot without contacting the server")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
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

	id := types.SummaryID(args[0])
	for _, s := range all {
		if s.ID != id {
			continue
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return renderJSON(cmd.OutOrStdout(), s)
		}
		showAll, _ := cmd.Flags().GetBool("all")
		renderSummary(cmd.OutOrStdout(), s, showAll, time.Now())
		return nil
	}
	return fmt.Errorf("summary %s not found", id)
}
