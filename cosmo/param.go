// Package cosmo provides the few flat-LCDM quantities the mock pipeline
// needs: the dimensionless Hubble parameter and the conversion between
// peculiar velocity and comoving line-of-sight displacement.
package cosmo

import (
	"math"
)

// H0Unit is the Hubble constant in h-units, km/s/(Mpc/h). With distances
// expressed in Mpc/h every H0 dependence reduces to this constant.
const H0Unit = 100.0

// HubbleFrac calculates E(z) = H(z)/H0 for a flat universe,
// H(z)**2 = H0**2 (OmegaM (1+z)**3 + OmegaL). Radiation and curvature
// are assumed negligible at the redshifts of interest.
func HubbleFrac(omegaM, omegaL, z float64) float64 {
	return math.Sqrt(omegaM*math.Pow(1.0+z, 3.0) + omegaL)
}

// VelZToKMS returns the factor that converts a comoving line-of-sight
// displacement in Mpc/h into a peculiar velocity in km/s at redshift z:
// a*H(z) = H0*E(z)/(1+z). Dividing a z-velocity by this factor yields the
// redshift-space displacement to apply along the line of sight.
func VelZToKMS(omegaM, omegaL, z float64) float64 {
	return H0Unit * HubbleFrac(omegaM, omegaL, z) / (1.0 + z)
}
