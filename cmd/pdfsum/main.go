// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfsum CLI, a client for a
// personal collection of PDF summaries held by the summaries API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfsum/internal/logger"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded once per invocation by the root command's PersistentPreRunE.
var (
	appConfig types.Config
	log       logger.Logger = logger.Nop()
)

// rootCmd is the base command for the pdfsum CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfsum",
	Short: "Manage your collection of PDF summaries",
	Long: `pdfsum manages a personal collection of document summaries produced by
the summaries API. List and search the collection, upload PDFs for
summarization, scan your linked drive for new documents, and delete
summaries you no longer need.

Requests run under the session stored in the session directory
(default .secrets/): the session-cookie file holds the cookie issued at
sign-in, and an optional base-url file overrides the API address.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := decodeConfig(viper.GetViper())
		if err != nil {
			return err
		}
		appConfig = cfg
		log = logger.NewStderr(cfg.Log.Level)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfsum.yaml or ~/.config/pdfsum/pdfsum.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "summaries API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides log.level)")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := configure(viper.GetViper(), cfgFile, ".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
