// Package hod populates halo catalogs with mock galaxies using a
// generalized Halo Occupation Distribution.
//
// # Reading Guide
//
// Start with these three files to understand the generation kernel:
//   - occupation.go: mean occupation functions per tracer (LRG, ELG, QSO)
//     and the decorated forms with assembly bias
//   - engine.go: the two-pass sharded generation loop for centrals and
//     satellites, velocity bias, and redshift-space displacement
//   - halo.go: the staged halo and particle column arrays the engine
//     consumes, loaded from prepared subsample catalogs
//
// # Architecture
//
// The pipeline has two stages backed by sub-packages:
//   - hod/prepare: turns raw simulation chunks into subsampled halo and
//     particle catalogs with attached random columns and optional particle
//     ranks; run once per simulation and redshift
//   - hod/config: the YAML document driving both stages
//   - hod/catalog: the .hcat column container both stages read and write
//   - hod/clustering: separation binning and mock summary statistics
//
// All randomness is attached to the catalogs at prepare time (uniform
// markers, Gaussian velocity deviates), so a generation run is a pure
// function of the catalogs and the HOD parameters: rerunning with a
// different thread count produces byte-identical galaxy output.
package hod
