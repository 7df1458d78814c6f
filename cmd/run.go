package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halomock/halomock/hod"
)

var (
	runNthread int  // Worker override for galaxy generation
	runNoWrite bool // Skip writing mock catalogs regardless of write_to_disk
)

// runCmd stages the prepared subsamples and generates the mock galaxy
// catalogs for every enabled tracer.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate mock galaxy catalogs from prepared subsamples",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadConfig()
		start := time.Now()

		halos, parts, header, err := hod.LoadSubsamples(cfg)
		if err != nil {
			logrus.Fatalf("Staging subsamples: %v", err)
		}

		engine := hod.NewEngine(hod.NewModel(cfg.HODParams), header, cfg.HODParams.WantRSD)
		engine.NThread = runNthread
		mock, err := engine.Run(halos, parts)
		if err != nil {
			logrus.Fatalf("Mock generation: %v", err)
		}

		if cfg.HODParams.WriteToDisk && !runNoWrite {
			if err := hod.WriteMock(cfg.MockDir(), mock); err != nil {
				logrus.Fatalf("Writing mock: %v", err)
			}
		}

		hod.Summarize(mock, header.BoxSize).Print(start)
		logrus.Info("Mock generation complete.")
	},
}

func init() {
	runCmd.Flags().IntVar(&runNthread, "nthread", 0, "Generation worker count (0 uses all CPUs)")
	runCmd.Flags().BoolVar(&runNoWrite, "no-write", false, "Skip writing catalogs even when write_to_disk is set")

	rootCmd.AddCommand(runCmd)
}
