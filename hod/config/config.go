// Package config defines the YAML configuration document that drives the
// halomock pipeline: simulation identity and paths, per-tracer HOD
// parameters, clustering binning, fitting data locations, and chain-runner
// settings. Documents are decoded strictly (unknown keys are errors) and
// re-serialize losslessly.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tracer names appearing as map keys and tracer_flags fields.
const (
	TracerLRG = "LRG"
	TracerELG = "ELG"
	TracerQSO = "QSO"
)

// DefaultSeed matches the historical subsample seed; it is baked into
// subsample filenames, so changing it invalidates cached products.
const DefaultSeed = 600

// Config is the top-level pipeline configuration document.
type Config struct {
	SimParams        SimParams        `yaml:"sim_params"`
	HODParams        HODParams        `yaml:"HOD_params"`
	ClusteringParams ClusteringParams `yaml:"clustering_params"`
	DataParams       *DataParams      `yaml:"data_params,omitempty"`
	FitParams        FitParams        `yaml:"fit_params,omitempty"`
	ChainConfig      *ChainConfig     `yaml:"ch_config_params,omitempty"`
}

// SimParams identifies the simulation and the directories the pipeline
// reads from and writes to.
type SimParams struct {
	SimName      string  `yaml:"sim_name"`
	SimDir       string  `yaml:"sim_dir"`
	ScratchDir   string  `yaml:"scratch_dir"`
	SubsampleDir string  `yaml:"subsample_dir"`
	ZMock        float64 `yaml:"z_mock"`
	NthreadLoad  int     `yaml:"Nthread_load"`
	Seed         int64   `yaml:"seed,omitempty"`
}

// TracerFlags enables or disables each tracer population.
type TracerFlags struct {
	LRG bool `yaml:"LRG"`
	ELG bool `yaml:"ELG"`
	QSO bool `yaml:"QSO"`
}

// HODParams holds the global pipeline switches and the nested per-tracer
// parameter sets.
type HODParams struct {
	WantRanks    bool        `yaml:"want_ranks"`
	DensitySigma float64     `yaml:"density_sigma"`
	NDim         int         `yaml:"Ndim"`
	TracerFlags  TracerFlags `yaml:"tracer_flags"`
	WantRSD      bool        `yaml:"want_rsd"`
	WriteToDisk  bool        `yaml:"write_to_disk"`
	LRG          LRGParams   `yaml:"LRG_params"`
	ELG          ELGParams   `yaml:"ELG_params"`
	QSO          QSOParams   `yaml:"QSO_params"`
}

// LRGParams is the extended Zheng et al. (2005) parametrization: the five
// baseline parameters plus velocity bias, satellite profile decorations,
// assembly bias, and incompleteness.
type LRGParams struct {
	LogMCut float64 `yaml:"logM_cut"`
	LogM1   float64 `yaml:"logM1"`
	Sigma   float64 `yaml:"sigma"`
	Alpha   float64 `yaml:"alpha"`
	Kappa   float64 `yaml:"kappa"`
	AlphaC  float64 `yaml:"alpha_c"`
	AlphaS  float64 `yaml:"alpha_s"`
	S       float64 `yaml:"s"`
	SV      float64 `yaml:"s_v"`
	SP      float64 `yaml:"s_p"`
	SR      float64 `yaml:"s_r"`
	ACent   float64 `yaml:"Acent"`
	ASat    float64 `yaml:"Asat"`
	BCent   float64 `yaml:"Bcent"`
	BSat    float64 `yaml:"Bsat"`
	IC      float64 `yaml:"ic"`
}

// ELGParams parametrizes emission-line galaxy occupation (the skewed
// Gaussian central form with a high-mass tail regulated by Q).
type ELGParams struct {
	PMax    float64 `yaml:"p_max"`
	Q       float64 `yaml:"Q"`
	LogMCut float64 `yaml:"logM_cut"`
	Kappa   float64 `yaml:"kappa"`
	Sigma   float64 `yaml:"sigma"`
	LogM1   float64 `yaml:"logM1"`
	Alpha   float64 `yaml:"alpha"`
	Gamma   float64 `yaml:"gamma"`
	AS      float64 `yaml:"A_s"`
	AlphaC  float64 `yaml:"alpha_c"`
	AlphaS  float64 `yaml:"alpha_s"`
}

// QSOParams parametrizes quasar occupation (an error-function central form
// saturating at p_max).
type QSOParams struct {
	PMax    float64 `yaml:"p_max"`
	LogMCut float64 `yaml:"logM_cut"`
	Kappa   float64 `yaml:"kappa"`
	Sigma   float64 `yaml:"sigma"`
	LogM1   float64 `yaml:"logM1"`
	Alpha   float64 `yaml:"alpha"`
	AS      float64 `yaml:"A_s"`
	AlphaC  float64 `yaml:"alpha_c"`
	AlphaS  float64 `yaml:"alpha_s"`
}

// BinParams describes log-spaced transverse separation binning.
type BinParams struct {
	LogMin float64 `yaml:"logmin"`
	LogMax float64 `yaml:"logmax"`
	NBins  int     `yaml:"nbins"`
}

// ClusteringParams selects the clustering statistic and its binning.
type ClusteringParams struct {
	ClusteringType string    `yaml:"clustering_type"`
	BinParams      BinParams `yaml:"bin_params"`
	PiMax          float64   `yaml:"pimax"`
	PiBinSize      float64   `yaml:"pi_bin_size"`
}

// TracerCombo points at the measured statistic and covariance for one
// tracer pair.
type TracerCombo struct {
	Path2Power string `yaml:"path2power"`
	Path2Cov   string `yaml:"path2cov"`
}

// DataParams maps tracer-pair names ("LRG_LRG", "LRG_ELG", ...) to their
// target data files.
type DataParams struct {
	TracerCombos map[string]TracerCombo `yaml:"tracer_combos"`
}

// ChainConfig configures the external chain runner.
type ChainConfig struct {
	Path2Output      string `yaml:"path2output"`
	ChainsPrefix     string `yaml:"chainsPrefix"`
	UseMPI           int    `yaml:"use_mpi"`
	Rerun            int    `yaml:"rerun"`
	WalkersRatio     int    `yaml:"walkersRatio"`
	BurninIterations int    `yaml:"burninIterations"`
	SampleIterations int    `yaml:"sampleIterations"`
}

// Load reads, lint-checks, and strictly decodes a configuration document.
// Tab-indented lines are rejected before decoding so the error carries a
// line number instead of a parser position. Defaults are applied after
// decoding; Validate is the caller's responsibility.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document from raw YAML bytes.
// Unrecognized keys (typos) are rejected.
func Parse(data []byte) (*Config, error) {
	if line := findTabIndent(data); line > 0 {
		return nil, fmt.Errorf("line %d: indentation uses a tab; YAML indentation must use spaces", line)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Marshal re-serializes the document. Together with Parse this is lossless
// for every scalar field.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SimParams.Seed == 0 {
		c.SimParams.Seed = DefaultSeed
	}
	if c.SimParams.NthreadLoad == 0 {
		c.SimParams.NthreadLoad = 1
	}
}

// findTabIndent returns the 1-based line number of the first line whose
// indentation contains a tab, or 0 if none does. Tabs after the first
// non-space character are content, not indentation, and are left alone.
func findTabIndent(data []byte) int {
	for i, line := range strings.Split(string(data), "\n") {
		for _, r := range line {
			if r == '\t' {
				return i + 1
			}
			if r != ' ' {
				break
			}
		}
	}
	return 0
}

// EnabledTracers returns the enabled tracer names in generation order
// (LRG, ELG, QSO).
func (c *Config) EnabledTracers() []string {
	var out []string
	if c.HODParams.TracerFlags.LRG {
		out = append(out, TracerLRG)
	}
	if c.HODParams.TracerFlags.ELG {
		out = append(out, TracerELG)
	}
	if c.HODParams.TracerFlags.QSO {
		out = append(out, TracerQSO)
	}
	return out
}

// MultiTracer reports whether the multi-tracer subsampling curves apply:
// they do whenever ELG or QSO is enabled.
func (c *Config) MultiTracer() bool {
	return c.HODParams.TracerFlags.ELG || c.HODParams.TracerFlags.QSO
}

// ZDirName formats a redshift slice directory component, e.g. "z0.500".
func ZDirName(z float64) string {
	return fmt.Sprintf("z%.3f", z)
}

// HaloInfoDir returns the directory holding the raw per-chunk halo
// catalogs for the configured simulation and redshift.
func (c *Config) HaloInfoDir() string {
	return filepath.Join(c.SimParams.SimDir, c.SimParams.SimName, "halos",
		ZDirName(c.SimParams.ZMock), "halo_info")
}

// ParticleDir returns the directory holding the raw per-chunk particle
// subsamples.
func (c *Config) ParticleDir() string {
	return filepath.Join(c.SimParams.SimDir, c.SimParams.SimName, "halos",
		ZDirName(c.SimParams.ZMock), "halo_rv_A")
}

// SubsampleDir returns the directory the prepare stage writes its
// subsampled halo and particle catalogs to.
func (c *Config) SubsampleDir() string {
	return filepath.Join(c.SimParams.SubsampleDir, c.SimParams.SimName,
		ZDirName(c.SimParams.ZMock))
}

// MockDir returns the directory mock galaxy catalogs are written to.
// Redshift-space catalogs land in a separate directory so real- and
// redshift-space products never overwrite each other.
func (c *Config) MockDir() string {
	galaxies := "galaxies"
	if c.HODParams.WantRSD {
		galaxies = "galaxies_rsd"
	}
	return filepath.Join(c.SimParams.ScratchDir, c.SimParams.SimName,
		ZDirName(c.SimParams.ZMock), galaxies)
}

// HaloInfoPath returns the raw halo catalog file for one chunk.
func (c *Config) HaloInfoPath(chunk int) string {
	return filepath.Join(c.HaloInfoDir(), fmt.Sprintf("halo_info_%03d.hcat", chunk))
}

// ParticlePath returns the raw particle subsample file for one chunk.
func (c *Config) ParticlePath(chunk int) string {
	return filepath.Join(c.ParticleDir(), fmt.Sprintf("halo_rv_A_%03d.hcat", chunk))
}

// HaloSubsamplePath returns the prepared halo catalog file for one chunk.
// The seed and the multi-tracer switch are baked into the name because
// they change the file's contents.
func (c *Config) HaloSubsamplePath(chunk int) string {
	name := fmt.Sprintf("halos_xcom_%d_seed%d", chunk, c.SimParams.Seed)
	if c.MultiTracer() {
		name += "_MT"
	}
	return filepath.Join(c.SubsampleDir(), name+".hcat")
}

// ParticleSubsamplePath returns the prepared particle catalog file for one
// chunk. Catalogs carrying particle ranks are named apart from those
// without, since the rank columns are only present on request.
func (c *Config) ParticleSubsamplePath(chunk int) string {
	name := fmt.Sprintf("particles_xcom_%d_seed%d", chunk, c.SimParams.Seed)
	if c.MultiTracer() {
		name += "_MT"
	}
	if c.HODParams.WantRanks {
		name += "_withranks"
	}
	return filepath.Join(c.SubsampleDir(), name+".hcat")
}

// DensityFieldPath returns the smoothed density grid file shared by all
// chunks of a simulation slice.
func (c *Config) DensityFieldPath() string {
	return filepath.Join(c.SubsampleDir(), "density_field.hcat")
}
