package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halomock/halomock/hod/config"
)

var (
	initOut   string // destination path for the starter document
	initForce bool   // overwrite an existing file
)

// starterDocument is a complete, valid configuration with fiducial LRG
// parameters. ELG and QSO blocks are included but disabled so enabling a
// tracer is a one-line edit.
const starterDocument = `# halomock pipeline configuration.
# Edit the paths under sim_params before running "halomock prepare".
sim_params:
  sim_name: AbacusSummit_base_c000_ph006
  sim_dir: /path/to/simulations
  scratch_dir: /path/to/scratch
  subsample_dir: /path/to/subsamples
  z_mock: 0.5
  Nthread_load: 4

HOD_params:
  want_ranks: false
  density_sigma: 3
  Ndim: 1024
  tracer_flags:
    LRG: true
    ELG: false
    QSO: false
  want_rsd: true
  write_to_disk: true
  LRG_params:
    logM_cut: 13.3
    logM1: 14.3
    sigma: 0.3
    alpha: 1.0
    kappa: 0.4
    alpha_c: 0.0
    alpha_s: 1.0
    s: 0.0
    s_v: 0.0
    s_p: 0.0
    s_r: 0.0
    Acent: 0.0
    Asat: 0.0
    Bcent: 0.0
    Bsat: 0.0
    ic: 0.97
  ELG_params:
    p_max: 0.33
    Q: 100.0
    logM_cut: 11.75
    kappa: 1.0
    sigma: 0.58
    logM1: 13.53
    alpha: 1.0
    gamma: 4.12
    A_s: 1.0
    alpha_c: 0.0
    alpha_s: 1.0
  QSO_params:
    p_max: 0.33
    logM_cut: 12.21
    kappa: 1.0
    sigma: 0.56
    logM1: 13.94
    alpha: 0.4
    A_s: 1.0
    alpha_c: 0.0
    alpha_s: 1.0

clustering_params:
  clustering_type: xirppi
  bin_params:
    logmin: -0.77
    logmax: 1.4
    nbins: 8
  pimax: 30
  pi_bin_size: 5
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration document",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if err := writeStarterConfig(initOut, initForce); err != nil {
			logrus.Fatalf("Init failed: %v", err)
		}
		fmt.Printf("Wrote %s\n", initOut)
	},
}

// writeStarterConfig writes the starter document to path. It refuses to
// clobber an existing file unless force is set, and re-parses what it is
// about to write so a stale document can never ship.
func writeStarterConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	cfg, err := config.Parse([]byte(starterDocument))
	if err != nil {
		return fmt.Errorf("starter document does not parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("starter document invalid: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterDocument), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initOut, "out", "o", "config.yaml", "Destination path for the starter config")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}
