package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects world coordinates inside a cube of half-size Extent onto
// the canvas with a mild perspective.
type Camera struct {
	Extent           float64
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera(extent float64) *Camera {
	return &Camera{Extent: extent, Distance: 4, Near: 0.1, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) Reset() {
	c.RotX, c.RotY, c.RotZ = 0, 0, 0
	c.Zoom = 1.0
}

// RotatePoint applies the x, y and z rotations in that order.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps p to dot coordinates on a sw x sh canvas. It returns the
// dot position, the depth and whether the point lands on the canvas.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	x, y, depth, ok := c.project(p, sw, sh)
	return x, y, depth, ok && x >= 0 && x < sw && y >= 0 && y < sh
}

// project reports ok for any finite point in front of the camera, on the
// canvas or not.
func (c *Camera) project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom/c.Extent, c.RotatePoint(p))
	if math.IsNaN(rot.X) || math.IsNaN(rot.Y) || math.IsNaN(rot.Z) {
		return 0, 0, 0, false
	}
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	half := float64(min(sw, sh)) / 3
	fx := rot.X*scale*half + float64(sw)/2
	fy := -rot.Y*scale*half + float64(sh)/2
	if !(math.Abs(fx) <= 1e5) || !(math.Abs(fy) <= 1e5) {
		return 0, 0, rot.Z, false
	}
	return int(fx), int(fy), rot.Z, true
}

type Edge struct {
	Start, End r3.Vec
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe           { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e r3.Vec) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p r3.Vec)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Len() int            { return len(w.Edges) }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe back to front.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, ok1 := cam.project(e.Start, cw, ch)
		x2, y2, d2, ok2 := cam.project(e.End, cw, ch)
		if ok1 && ok2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// BoxWireframe outlines the cube [-half, half]^3.
func BoxWireframe(half float64) *Wireframe {
	w, s := NewWireframe(), half
	v := []r3.Vec{
		{X: -s, Y: -s, Z: -s}, {X: s, Y: -s, Z: -s}, {X: s, Y: s, Z: -s}, {X: -s, Y: s, Z: -s},
		{X: -s, Y: -s, Z: s}, {X: s, Y: -s, Z: s}, {X: s, Y: s, Z: s}, {X: -s, Y: s, Z: s},
	}
	ei := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for _, e := range ei {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}
