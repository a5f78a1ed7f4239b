// Package viz draws a running system in the terminal with Bubble Tea.
//
// Bodies are projected from a ±500 world cube onto a braille [Canvas]. Each
// orbiting body carries a velocity marker scaled by [VelocityScale] and a
// short trail. The side panel shows the selected body's diagnostics and the
// whole-system energy history.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial configuration
//	C     - Toggle full and central-only interaction
//	Tab   - Select the next body
//	[ ]   - Replay history
//	x y z - Rotate the camera, shift reverses
//	+ -   - Zoom
//	T     - Cycle color themes
package viz
