package dorsum

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	ridgeColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	curveColor = color.RGBA{B: 0xff, A: 0xff}
)

// ProfilePlot charts the lateral deviation of the ridge against height, with the fitted curve
// drawn through it when c is not nil.
func ProfilePlot(ridge Ridge, c *Curve) (*plot.Plot, error) {
	if len(ridge) == 0 {
		return nil, errors.New("cannot plot an empty ridge")
	}
	p := plot.New()
	p.Title.Text = "Nasal dorsum profile"
	p.X.Label.Text = "Lateral deviation X"
	p.Y.Label.Text = "Height Z"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(ridge))
	for _, rp := range ridge {
		pts = append(pts, plotter.XY{X: rp.X, Y: rp.Height})
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "plotting ridge points")
	}
	scatter.Color = ridgeColor
	scatter.Shape = draw.CircleGlyph{}
	scatter.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("ridge", scatter)

	if c != nil {
		poly := c.Points()
		linePts := make(plotter.XYs, 0, len(poly))
		for _, v := range poly {
			linePts = append(linePts, plotter.XY{X: v.X, Y: v.Z})
		}
		line, err := plotter.NewLine(linePts)
		if err != nil {
			return nil, errors.Wrap(err, "plotting curve")
		}
		line.Color = curveColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("curve", line)
	}

	// mid-sagittal reference line
	bottom, top := ridge[0].Height, ridge[len(ridge)-1].Height
	mid, err := plotter.NewLine(plotter.XYs{{X: 0, Y: bottom}, {X: 0, Y: top}})
	if err != nil {
		return nil, errors.Wrap(err, "plotting midline")
	}
	mid.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(mid)
	return p, nil
}

// SaveProfile writes the profile chart to path. The image format follows the file extension.
func SaveProfile(path string, ridge Ridge, c *Curve) error {
	p, err := ProfilePlot(ridge, c)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 8*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving profile %q", path)
	}
	return nil
}
