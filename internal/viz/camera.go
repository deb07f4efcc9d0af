package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadius is the equatorial radius drawn as the central body, km.
const EarthRadius = 6378.137

// Camera is an orthographic view onto the orbital frame. Extent is the
// distance from the centre that maps to the edge of the shorter canvas
// side at zoom 1.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Extent           float64
}

func NewCamera(extent float64) *Camera {
	return &Camera{Zoom: 1, Extent: extent}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Fit grows Extent so that a point at distance r stays on screen.
func (c *Camera) Fit(r float64) {
	if r*1.05 > c.Extent {
		c.Extent = r * 1.05
	}
}

// RotatePoint rotates p about x, then y, then z.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// scale is dots per km on a canvas of sw x sh dots.
func (c *Camera) scale(sw, sh int) float64 {
	if c.Extent <= 0 {
		return 0
	}
	return float64(min(sw, sh)) / 2 / c.Extent * c.Zoom
}

// Project maps p to dot coordinates on a canvas of sw x sh dots and
// reports whether the point lands on it.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, bool) {
	rot := c.RotatePoint(p)
	k := c.scale(sw, sh)
	x := int(math.Round(rot.X*k)) + sw/2
	y := int(math.Round(-rot.Y*k)) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}

// RenderOrbit draws the central body and the path through points, joining
// consecutive points with lines.
func RenderOrbit(cv *Canvas, cam *Camera, points []r3.Vec, body float64) {
	sw, sh := cv.PixelSize()
	if body > 0 {
		cv.DrawCircle(sw/2, sh/2, body*cam.scale(sw, sh))
	}

	for i, p := range points {
		x, y, on := cam.Project(p, sw, sh)
		if i == 0 {
			cv.Set(x, y)
			continue
		}
		px, py, prevOn := cam.Project(points[i-1], sw, sh)
		if !on && !prevOn {
			continue
		}
		cv.DrawLine(px, py, x, y)
	}
}
