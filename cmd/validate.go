package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halomock/halomock/hod/config"
)

// validateCmd checks a configuration document against the full schema and
// exits nonzero on the first violation.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration document",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if configPath == "" {
			logrus.Fatalf("No configuration document provided (--config)")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			logrus.Fatalf("Config does not parse: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Config invalid: %v", err)
		}
		fmt.Printf("%s: valid (tracers: %s)\n", configPath, strings.Join(cfg.EnabledTracers(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
