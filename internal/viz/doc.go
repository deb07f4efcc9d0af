// Package viz renders trajectories in the terminal and to image files.
//
//   - [Canvas]: Braille pixel canvas, 2x4 dots per character cell
//   - [Camera]: orthographic view of the orbit that can be rotated and zoomed
//   - [RadiusChart], [EnergyChart]: asciigraph line charts
//   - [SavePlot]: orbit projections and radius history as PNG or SVG
//   - [Live]: Bubble Tea view that streams a propagation as it runs
//   - [Menu]: preset picker in front of the live view
//
// # Key Bindings (live view)
//
//	Space - Pause/Resume
//	R     - Restart from the initial state
//	Tab   - Cycle parameters
//	↑/↓   - Tune the selected parameter (±5%), continuing from the current state
//	x/y/z - Rotate the view (shift reverses)
//	+/-   - Zoom
//	</>   - Slower/faster streaming
//	T     - Cycle color themes
//	Q     - Quit
package viz
