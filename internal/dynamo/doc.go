// Package dynamo provides the shared primitives of the gravity simulator.
//
// The package defines the vocabulary every other package speaks:
//
//   - [Method]: integration scheme (Euler or Leapfrog)
//   - [Topology]: which bodies exert gravity (full pairwise or central-only)
//   - [Integrator] and [Stepper]: the drift/kick contract between schemes and systems
//   - [Snapshot]: immutable post-step state consumed by observers and renderers
//   - [Metric] and [Observer]: per-step consumers of snapshots
//
// # Example
//
//	sys, _ := physics.NewSystem(dynamo.Leapfrog, 1)
//	sys.Add(physics.NewBody(1000, r3.Vec{}, r3.Vec{}, dynamo.Central))
//	sys.Add(physics.NewBody(1, r3.Vec{X: 100}, r3.Vec{Y: 3.16}, dynamo.Orbiting))
//	snap, _ := sys.StepCentralOnly()
//
// # Thread Safety
//
// Systems are NOT thread-safe. Independent runs may execute in parallel,
// each owning its own system.
package dynamo
