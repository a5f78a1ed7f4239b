// Package physics implements the gravity engine: point-mass bodies, the
// system that steps them, and the per-body diagnostics.
//
//   - [Body]: mass, position, velocity and a central/orbiting role
//   - [System]: ordered bodies stepped under full or central-only interaction
//   - [Diagnose]: angular momentum and kinetic/potential/total energy
//
// Units are chosen so that the gravitational constant is 1.
//
// # Central Bodies
//
// A central body never translates. Under the full interaction topology its
// velocity still accumulates the pull of the orbiting bodies, and it never
// receives diagnostics:
//
//	sys.Step()
//	sun, _ := sys.Central()
//	_ = sun.Velocity // non-zero, sun.Position unchanged
package physics
