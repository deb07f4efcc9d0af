package viz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCamera_Project(t *testing.T) {
	cam := NewCamera(100)

	x, y, on := cam.Project(r3.Vec{}, 80, 40)
	assert.True(t, on)
	assert.Equal(t, 40, x)
	assert.Equal(t, 20, y)

	// extent maps to the edge of the shorter side
	x, y, on = cam.Project(r3.Vec{Y: 100}, 80, 40)
	assert.True(t, on)
	assert.Equal(t, 40, x)
	assert.Equal(t, 0, y)

	_, _, on = cam.Project(r3.Vec{X: 500}, 80, 40)
	assert.False(t, on)
}

func TestCamera_RotatePoint(t *testing.T) {
	cam := NewCamera(1)
	cam.RotateZ(math.Pi / 2)
	p := cam.RotatePoint(r3.Vec{X: 1})
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)

	cam = NewCamera(1)
	cam.RotateX(math.Pi / 2)
	p = cam.RotatePoint(r3.Vec{Y: 1})
	assert.InDelta(t, 0, p.Y, 1e-12)
	assert.InDelta(t, 1, p.Z, 1e-12)
	assert.InDelta(t, 1, r3.Norm(cam.RotatePoint(r3.Vec{X: 0.6, Z: 0.8})), 1e-12)
}

func TestCamera_FitAndZoom(t *testing.T) {
	cam := NewCamera(100)
	cam.Fit(50)
	assert.Equal(t, 100.0, cam.Extent)
	cam.Fit(200)
	assert.InDelta(t, 210, cam.Extent, 1e-9)

	for i := 0; i < 50; i++ {
		cam.ZoomIn()
	}
	assert.Equal(t, 10.0, cam.Zoom)
	for i := 0; i < 100; i++ {
		cam.ZoomOut()
	}
	assert.Equal(t, 0.1, cam.Zoom)
}

func TestRenderOrbit(t *testing.T) {
	cv := NewCanvas(40, 20)
	cam := NewCamera(10000)

	var pts []r3.Vec
	for i := 0; i <= 64; i++ {
		a := 2 * math.Pi * float64(i) / 64
		pts = append(pts, r3.Vec{X: 8000 * math.Cos(a), Y: 8000 * math.Sin(a)})
	}
	RenderOrbit(cv, cam, pts, EarthRadius)

	sw, sh := cv.PixelSize()
	x, y, on := cam.Project(pts[0], sw, sh)
	assert.True(t, on)
	assert.True(t, cv.IsSet(x, y))
	// the body outline is drawn, its centre is not
	assert.False(t, cv.IsSet(sw/2, sh/2))
}

func TestRenderOrbit_SkipsOffscreenSegments(t *testing.T) {
	cv := NewCanvas(10, 5)
	cam := NewCamera(10)
	RenderOrbit(cv, cam, []r3.Vec{{X: 1000}, {X: 1000, Y: 1000}}, 0)
	assert.Equal(t, NewCanvas(10, 5).String(), cv.String())
}
