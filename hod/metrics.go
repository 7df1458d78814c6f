package hod

import (
	"fmt"
	"time"

	"github.com/halomock/halomock/hod/config"
)

// TracerSummary reports the population generated for one tracer.
type TracerSummary struct {
	Tracer      string
	NCent       int
	NSat        int
	SatFraction float64
	// NumberDensity is galaxies per (Mpc/h)^3.
	NumberDensity float64
}

// RunSummary aggregates per-tracer populations for one generation run.
type RunSummary struct {
	BoxSize float64
	Tracers []TracerSummary
}

// Summarize computes population statistics for a mock, in fixed
// LRG, ELG, QSO order.
func Summarize(mock MockDict, boxSize float64) RunSummary {
	s := RunSummary{BoxSize: boxSize}
	vol := boxSize * boxSize * boxSize
	for _, tracer := range []string{config.TracerLRG, config.TracerELG, config.TracerQSO} {
		g, ok := mock[tracer]
		if !ok {
			continue
		}
		t := TracerSummary{Tracer: tracer, NCent: g.NCent, NSat: g.NSat()}
		if g.Len() > 0 {
			t.SatFraction = float64(g.NSat()) / float64(g.Len())
		}
		if vol > 0 {
			t.NumberDensity = float64(g.Len()) / vol
		}
		s.Tracers = append(s.Tracers, t)
	}
	return s
}

// Print writes the summary as an aligned table on stdout, closed by the
// wall time elapsed since start.
func (s RunSummary) Print(start time.Time) {
	fmt.Printf("%-8s %12s %12s %10s %14s\n", "tracer", "centrals", "satellites", "f_sat", "n_gal")
	for _, t := range s.Tracers {
		fmt.Printf("%-8s %12d %12d %10.4f %14.6e\n",
			t.Tracer, t.NCent, t.NSat, t.SatFraction, t.NumberDensity)
	}
	fmt.Printf("wall time: %v\n", time.Since(start).Round(time.Millisecond))
}
