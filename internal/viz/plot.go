package viz

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// PlotKind selects what SavePlot draws.
type PlotKind string

const (
	PlotOrbitXY PlotKind = "xy"
	PlotOrbitXZ PlotKind = "xz"
	PlotOrbitYZ PlotKind = "yz"
	PlotRadius  PlotKind = "radius"
)

var PlotKinds = []PlotKind{PlotOrbitXY, PlotOrbitXZ, PlotOrbitYZ, PlotRadius}

// SavePlot renders traj to path. The image format follows the extension
// (.png or .svg).
func SavePlot(path string, traj *dynamo.Trajectory, kind PlotKind, title string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".svg":
	default:
		return fmt.Errorf("unsupported plot format %q (want .png or .svg)", ext)
	}
	if traj.Len() == 0 {
		return fmt.Errorf("empty trajectory")
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, traj.Len())
	switch kind {
	case PlotRadius:
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = "radius (km)"
		for i, s := range traj.Samples {
			pts[i].X, pts[i].Y = s.Time, s.State.Radius()
		}
	case PlotOrbitXY, PlotOrbitXZ, PlotOrbitYZ:
		a, b := string(kind[0]), string(kind[1])
		p.X.Label.Text = a + " (km)"
		p.Y.Label.Text = b + " (km)"
		for i, s := range traj.Samples {
			pts[i].X, pts[i].Y = axis(s.State, kind[0]), axis(s.State, kind[1])
		}
		body, err := plotter.NewLine(bodyOutline(64))
		if err != nil {
			return err
		}
		body.LineStyle.Width = vg.Points(1)
		body.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(body)
		squareAxes(p, pts)
	default:
		return fmt.Errorf("unknown plot kind %q", kind)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	w, h := 8*vg.Inch, 8*vg.Inch
	if kind == PlotRadius {
		h = 4 * vg.Inch
	}
	return p.Save(w, h, path)
}

func bodyOutline(n int) plotter.XYs {
	pts := make(plotter.XYs, n+1)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i].X = EarthRadius * math.Cos(a)
		pts[i].Y = EarthRadius * math.Sin(a)
	}
	return pts
}

// squareAxes gives both axes the same range, centred on the data and
// always containing the central body.
func squareAxes(p *plot.Plot, pts plotter.XYs) {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}

	xmin, xmax := math.Min(floats.Min(xs), -EarthRadius), math.Max(floats.Max(xs), EarthRadius)
	ymin, ymax := math.Min(floats.Min(ys), -EarthRadius), math.Max(floats.Max(ys), EarthRadius)
	half := math.Max(xmax-xmin, ymax-ymin) / 2 * 1.05
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2

	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}

func axis(s dynamo.State, c byte) float64 {
	switch c {
	case 'x':
		return s.Position.X
	case 'y':
		return s.Position.Y
	default:
		return s.Position.Z
	}
}
