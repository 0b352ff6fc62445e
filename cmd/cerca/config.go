package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lidianycs/cerca/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: fmt.Sprintf(`Get or set configuration values stored in %s.

Usage:
  cerca config                              # Show all config
  cerca config contact_email                # Get a value
  cerca config contact_email me@uni.edu     # Set a value

Keys:
  contact_email  Email sent to polite-pool APIs (Crossref, OpenAlex)
  s2_api_key     Semantic Scholar API key; the source is skipped without one

Environment variables %s and %s override the file.`,
		config.Path(), config.EnvS2APIKey, config.EnvContactEmail),
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	switch len(args) {
	case 0:
		all := make(map[string]string, len(config.Keys()))
		for _, key := range config.Keys() {
			v, _ := cfg.Get(key)
			all[key] = v
		}
		return outputJSON(all)

	case 1:
		v, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitConfigError, "%v (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
		}
		fmt.Println(v)
		return nil

	default:
		if err := cfg.Set(args[0], args[1]); err != nil {
			exitWithError(ExitConfigError, "%v (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
		}
		if err := cfg.Save(); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		return outputJSON(map[string]string{"status": "updated", "key": args[0], "value": args[1]})
	}
}
