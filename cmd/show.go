package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halomock/halomock/hod/clustering"
)

// showCmd round-trips the parsed document to stdout, then prints the
// values the pipeline derives from it.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the parsed configuration and its derived values",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadConfig()
		data, err := cfg.Marshal()
		if err != nil {
			logrus.Fatalf("Could not re-serialize config: %v", err)
		}
		fmt.Print(string(data))

		bins, err := clustering.NewBinning(cfg.ClusteringParams)
		if err != nil {
			logrus.Fatalf("Bad clustering binning: %v", err)
		}
		fmt.Printf("\n# derived\n")
		fmt.Printf("tracers:       %s\n", strings.Join(cfg.EnabledTracers(), ", "))
		fmt.Printf("subsample dir: %s\n", cfg.SubsampleDir())
		fmt.Printf("mock dir:      %s\n", cfg.MockDir())
		fmt.Printf("density field: %s\n", cfg.DensityFieldPath())
		fmt.Printf("rp edges:      %s\n", formatEdges(bins.RP))
		fmt.Printf("pi edges:      %s\n", formatEdges(bins.Pi))
	},
}

func formatEdges(edges []float64) string {
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = strconv.FormatFloat(e, 'g', 4, 64)
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(showCmd)
}
