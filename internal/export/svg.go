package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/viz"
)

// Plane selects the two coordinates a trajectory is projected onto.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(s) {
	case "xy", "":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return 0, fmt.Errorf("unknown plane: %s", s)
}

func (p Plane) project(v r3.Vec) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneYZ:
		return v.Y, v.Z
	}
	return v.X, v.Y
}

var palette = []string{"#00ffff", "#ff00ff", "#ffcc00", "#00ff88", "#ff6b6b", "#0088ff", "#ff9ff3", "#88ff88"}

// VelocityScale matches the live view's velocity marker length.
const VelocityScale = viz.VelocityScale

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) add(x, y float64) {
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

// pad widens the box by 10% and keeps the aspect ratio square.
func (b *bounds) pad() {
	span := math.Max(b.maxX-b.minX, b.maxY-b.minY)
	if span == 0 {
		span = 1
	}
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	half := span * 0.6
	b.minX, b.maxX = cx-half, cx+half
	b.minY, b.maxY = cy-half, cy+half
}

// TrajectoriesToSVG draws every body's path projected onto plane. The
// central body is a filled disc and each orbiting body ends in a velocity
// marker. Points after the state turns non-finite are dropped.
func TrajectoriesToSVG(snaps []dynamo.Snapshot, plane Plane, width, height int) string {
	if len(snaps) == 0 {
		return ""
	}

	paths := make(map[dynamo.BodyID][][2]float64)
	var order []dynamo.BodyID
	last := make(map[dynamo.BodyID]dynamo.BodyState)
	bb := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}

	for _, snap := range snaps {
		for _, b := range snap.Bodies {
			if !dynamo.FiniteVec(b.Position) || !dynamo.FiniteVec(b.Velocity) {
				continue
			}
			if _, ok := paths[b.ID]; !ok {
				order = append(order, b.ID)
			}
			x, y := plane.project(b.Position)
			paths[b.ID] = append(paths[b.ID], [2]float64{x, y})
			last[b.ID] = b
			bb.add(x, y)
		}
	}
	if len(order) == 0 {
		return ""
	}
	bb.pad()

	toScreen := func(x, y float64) (float64, float64) {
		sx := (x - bb.minX) / (bb.maxX - bb.minX) * float64(width)
		sy := float64(height) - (y-bb.minY)/(bb.maxY-bb.minY)*float64(height)
		return sx, sy
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, id := range order {
		color := palette[i%len(palette)]
		b := last[id]
		pts := paths[id]

		if b.Role == dynamo.Central {
			x, y := toScreen(pts[len(pts)-1][0], pts[len(pts)-1][1])
			fmt.Fprintf(&sb, `<circle id="body-%d" cx="%.1f" cy="%.1f" r="6" fill="#ffcc00"/>
`, id, x, y)
			continue
		}

		if len(pts) > 1 {
			fmt.Fprintf(&sb, `<path id="body-%d" fill="none" stroke="%s" stroke-width="1.5" d="M`, id, color)
			for j, p := range pts {
				x, y := toScreen(p[0], p[1])
				if j == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		x0, y0 := toScreen(plane.project(b.Position))
		x1, y1 := toScreen(plane.project(r3.Add(b.Position, r3.Scale(VelocityScale, b.Velocity))))
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>
`, x0, y0, color, x0, y0, x1, y1, color)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// RenderFrame draws a snapshot onto a fresh canvas the way the live view
// does, without trails.
func RenderFrame(snap dynamo.Snapshot, cols, rows int) *viz.Canvas {
	c := viz.NewCanvas(cols, rows)
	cam := viz.NewCamera(viz.WorldExtent)
	viz.Render3D(c, viz.BoxWireframe(viz.WorldExtent), cam)

	viz.DrawBodies(c, cam, snap, -1)
	return c
}
