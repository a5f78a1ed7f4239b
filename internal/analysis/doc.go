// Package analysis extracts orbital quantities from recorded runs.
//
//   - [PowerSpectrum] and [DominantPeriod]: spectral analysis of a sampled
//     series such as a body's distance to the star
//   - [Apsides]: closest and farthest approach and the implied eccentricity
//   - [LyapunovExponent]: divergence rate of two nearby copies of a system
//
// A positive Lyapunov exponent indicates chaotic motion, which is common
// once several planets interact under full stepping:
//
//	lambda, err := analysis.LyapunovExponent(ctx, cfg, 1e-6)
//	if err == nil && lambda > 0 {
//	    // sensitive to initial conditions
//	}
package analysis
