// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfsum/pkg/types"
)

const envPrefix = "PDFSUM"

// setDefaults registers every configuration key so that environment
// variables (PDFSUM_API_BASE_URL, ...) are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "120s")
	v.SetDefault("api.user_agent", "")
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("session.dir", ".secrets/")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("upload.max_bytes", types.MaxUploadBytes)
	v.SetDefault("upload.progress_interval", "200ms")
	v.SetDefault("upload.dismiss_after", "2s")
	v.SetDefault("upload.parallel", 2)
	v.SetDefault("cache.dir", filepath.Join("~", ".cache", "pdfsum"))
	v.SetDefault("log.level", "warn")
}

// configure loads envFile into the process environment (existing variables
// win), points v at the config file and the PDFSUM_ environment, and reads
// the config file if one is found. It returns the path of the file used.
func configure(v *viper.Viper, cfgFile, envFile string) (string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfsum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdfsum"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// decodeConfig builds the typed configuration from v.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "pdfsum/" + version
	}
	if cfg.Upload.Parallel <= 0 {
		cfg.Upload.Parallel = 1
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = types.MaxUploadBytes
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
