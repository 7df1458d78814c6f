package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halomock/halomock/hod/prepare"
)

var prepareNthread int // Worker override for the prepare stage

// prepareCmd subsamples the raw simulation catalogs into the seeded
// per-chunk halo and particle files the run stage consumes.
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Subsample raw catalogs into prepared chunk files",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadConfig()
		if prepareNthread > 0 {
			cfg.SimParams.NthreadLoad = prepareNthread
		}
		if err := prepare.Run(cfg); err != nil {
			logrus.Fatalf("Prepare failed: %v", err)
		}
	},
}

func init() {
	prepareCmd.Flags().IntVar(&prepareNthread, "nthread", 0, "Override Nthread_load workers (0 keeps the config value)")

	rootCmd.AddCommand(prepareCmd)
}
