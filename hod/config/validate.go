package config

import (
	"fmt"
	"math"
	"strings"
)

// ClusteringTypeXirppi and ClusteringTypeWp are the supported clustering
// statistics.
const (
	ClusteringTypeXirppi = "xirppi"
	ClusteringTypeWp     = "wp"
)

var validClusteringTypes = map[string]bool{
	ClusteringTypeXirppi: true,
	ClusteringTypeWp:     true,
}

var validTracers = map[string]bool{
	TracerLRG: true,
	TracerELG: true,
	TracerQSO: true,
}

// Validate checks the whole document and returns the first violation,
// prefixed with the offending section.
func (c *Config) Validate() error {
	if err := c.SimParams.validate(); err != nil {
		return fmt.Errorf("sim_params: %w", err)
	}
	if err := c.HODParams.validate(); err != nil {
		return fmt.Errorf("HOD_params: %w", err)
	}
	if err := c.ClusteringParams.validate(); err != nil {
		return fmt.Errorf("clustering_params: %w", err)
	}
	if c.DataParams != nil {
		if err := c.DataParams.validate(); err != nil {
			return fmt.Errorf("data_params: %w", err)
		}
	}
	if len(c.FitParams) > 0 {
		if err := c.validateFitParams(); err != nil {
			return fmt.Errorf("fit_params: %w", err)
		}
	}
	if c.ChainConfig != nil {
		if err := c.ChainConfig.validate(); err != nil {
			return fmt.Errorf("ch_config_params: %w", err)
		}
	}
	return nil
}

func (p *SimParams) validate() error {
	if p.SimName == "" {
		return fmt.Errorf("sim_name must not be empty")
	}
	if p.SimDir == "" {
		return fmt.Errorf("sim_dir must not be empty")
	}
	if p.ScratchDir == "" {
		return fmt.Errorf("scratch_dir must not be empty")
	}
	if p.SubsampleDir == "" {
		return fmt.Errorf("subsample_dir must not be empty")
	}
	if p.ZMock < 0 {
		return fmt.Errorf("z_mock must be non-negative, got %v", p.ZMock)
	}
	if p.NthreadLoad < 1 {
		return fmt.Errorf("Nthread_load must be at least 1, got %d", p.NthreadLoad)
	}
	if p.Seed < 0 {
		return fmt.Errorf("seed must be non-negative, got %d", p.Seed)
	}
	return nil
}

func (p *HODParams) validate() error {
	if !p.TracerFlags.LRG && !p.TracerFlags.ELG && !p.TracerFlags.QSO {
		return fmt.Errorf("tracer_flags: at least one tracer must be enabled")
	}
	if p.NDim < 1 {
		return fmt.Errorf("Ndim must be at least 1, got %d", p.NDim)
	}
	if p.DensitySigma <= 0 {
		return fmt.Errorf("density_sigma must be positive, got %v", p.DensitySigma)
	}
	if p.TracerFlags.LRG {
		if err := p.LRG.validate(); err != nil {
			return fmt.Errorf("LRG_params: %w", err)
		}
	}
	if p.TracerFlags.ELG {
		if err := p.ELG.validate(); err != nil {
			return fmt.Errorf("ELG_params: %w", err)
		}
	}
	if p.TracerFlags.QSO {
		if err := p.QSO.validate(); err != nil {
			return fmt.Errorf("QSO_params: %w", err)
		}
	}
	return nil
}

func (p *LRGParams) validate() error {
	if p.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", p.Sigma)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %v", p.Alpha)
	}
	if p.Kappa < 0 {
		return fmt.Errorf("kappa must be non-negative, got %v", p.Kappa)
	}
	if p.IC <= 0 || p.IC > 1 {
		return fmt.Errorf("ic must be in (0, 1], got %v", p.IC)
	}
	return nil
}

func (p *ELGParams) validate() error {
	if p.PMax <= 0 || p.PMax > 1 {
		return fmt.Errorf("p_max must be in (0, 1], got %v", p.PMax)
	}
	if p.Q <= 0 {
		return fmt.Errorf("Q must be positive, got %v", p.Q)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", p.Sigma)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %v", p.Alpha)
	}
	if p.Kappa < 0 {
		return fmt.Errorf("kappa must be non-negative, got %v", p.Kappa)
	}
	if p.AS < 0 {
		return fmt.Errorf("A_s must be non-negative, got %v", p.AS)
	}
	return nil
}

func (p *QSOParams) validate() error {
	if p.PMax <= 0 || p.PMax > 1 {
		return fmt.Errorf("p_max must be in (0, 1], got %v", p.PMax)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", p.Sigma)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %v", p.Alpha)
	}
	if p.Kappa < 0 {
		return fmt.Errorf("kappa must be non-negative, got %v", p.Kappa)
	}
	if p.AS < 0 {
		return fmt.Errorf("A_s must be non-negative, got %v", p.AS)
	}
	return nil
}

func (p *ClusteringParams) validate() error {
	if !validClusteringTypes[p.ClusteringType] {
		return fmt.Errorf("unknown clustering_type %q", p.ClusteringType)
	}
	if p.BinParams.NBins < 1 {
		return fmt.Errorf("bin_params: nbins must be at least 1, got %d", p.BinParams.NBins)
	}
	if p.BinParams.LogMin >= p.BinParams.LogMax {
		return fmt.Errorf("bin_params: logmin (%v) must be less than logmax (%v)",
			p.BinParams.LogMin, p.BinParams.LogMax)
	}
	if p.PiMax <= 0 {
		return fmt.Errorf("pimax must be positive, got %v", p.PiMax)
	}
	if p.ClusteringType == ClusteringTypeXirppi {
		if p.PiBinSize <= 0 {
			return fmt.Errorf("pi_bin_size must be positive, got %v", p.PiBinSize)
		}
		ratio := p.PiMax / p.PiBinSize
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
			return fmt.Errorf("pimax (%v) must be an integer multiple of pi_bin_size (%v)",
				p.PiMax, p.PiBinSize)
		}
	}
	return nil
}

func (p *DataParams) validate() error {
	if len(p.TracerCombos) == 0 {
		return fmt.Errorf("tracer_combos must not be empty")
	}
	for name, combo := range p.TracerCombos {
		parts := strings.Split(name, "_")
		if len(parts) != 2 || !validTracers[parts[0]] || !validTracers[parts[1]] {
			return fmt.Errorf("tracer_combos: %q is not a <tracer>_<tracer> pair", name)
		}
		if combo.Path2Power == "" {
			return fmt.Errorf("tracer_combos[%s]: path2power must not be empty", name)
		}
		if combo.Path2Cov == "" {
			return fmt.Errorf("tracer_combos[%s]: path2cov must not be empty", name)
		}
	}
	return nil
}

func (c *Config) validateFitParams() error {
	names := make(map[string]bool, len(c.FitParams))
	indices := make(map[int]string, len(c.FitParams))
	for _, entry := range c.FitParams {
		if names[entry.Name] {
			return fmt.Errorf("duplicate parameter %q", entry.Name)
		}
		names[entry.Name] = true

		p := entry.Param
		if p.Index < 0 {
			return fmt.Errorf("%s: mapping_index must be non-negative, got %d", entry.Name, p.Index)
		}
		if prev, taken := indices[p.Index]; taken {
			return fmt.Errorf("%s: mapping_index %d already used by %q", entry.Name, p.Index, prev)
		}
		indices[p.Index] = entry.Name

		if p.Min > p.Mean || p.Mean > p.Max {
			return fmt.Errorf("%s: want min <= mean <= max, got [%v, %v, %v]",
				entry.Name, p.Min, p.Mean, p.Max)
		}
		if p.Sigma <= 0 {
			return fmt.Errorf("%s: sigma must be positive, got %v", entry.Name, p.Sigma)
		}
		if !validTracers[p.Tracer] {
			return fmt.Errorf("%s: unknown tracer %q", entry.Name, p.Tracer)
		}
		if !c.tracerEnabled(p.Tracer) {
			return fmt.Errorf("%s: tracer %q is not enabled in tracer_flags", entry.Name, p.Tracer)
		}
	}
	return nil
}

func (c *Config) tracerEnabled(tracer string) bool {
	switch tracer {
	case TracerLRG:
		return c.HODParams.TracerFlags.LRG
	case TracerELG:
		return c.HODParams.TracerFlags.ELG
	case TracerQSO:
		return c.HODParams.TracerFlags.QSO
	}
	return false
}

func (p *ChainConfig) validate() error {
	if p.Path2Output == "" {
		return fmt.Errorf("path2output must not be empty")
	}
	if p.ChainsPrefix == "" {
		return fmt.Errorf("chainsPrefix must not be empty")
	}
	if p.UseMPI != 0 && p.UseMPI != 1 {
		return fmt.Errorf("use_mpi must be 0 or 1, got %d", p.UseMPI)
	}
	if p.Rerun != 0 && p.Rerun != 1 {
		return fmt.Errorf("rerun must be 0 or 1, got %d", p.Rerun)
	}
	if p.WalkersRatio < 1 {
		return fmt.Errorf("walkersRatio must be at least 1, got %d", p.WalkersRatio)
	}
	if p.BurninIterations < 0 {
		return fmt.Errorf("burninIterations must be non-negative, got %d", p.BurninIterations)
	}
	if p.SampleIterations < 1 {
		return fmt.Errorf("sampleIterations must be at least 1, got %d", p.SampleIterations)
	}
	return nil
}
