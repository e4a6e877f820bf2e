package snapshot

import (
	"context"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/nasalsym/rimage"
	"go.viam.com/nasalsym/spatialmath"
)

// Config controls how snapshots look.
type Config struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Supersample int     `json:"supersample"`
	Margin      float64 `json:"margin"`
	MeshColor   string  `json:"mesh_color"`
	CurveColor  string  `json:"curve_color"`
	CurveWidth  float64 `json:"curve_width"`
	Background  string  `json:"background"`
	Labels      bool    `json:"labels"`
	// Ambient is the share of light every face receives regardless of its orientation.
	Ambient float64 `json:"ambient"`
}

// DefaultConfig returns a grey nose with a blue dorsum on white.
func DefaultConfig() Config {
	return Config{
		Width:       800,
		Height:      800,
		Supersample: 2,
		Margin:      20,
		MeshColor:   "grey",
		CurveColor:  "blue",
		CurveWidth:  5,
		Background:  "white",
		Labels:      true,
		Ambient:     0.3,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Width <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("width must be positive, got %d", cfg.Width))
	}
	if cfg.Height <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("height must be positive, got %d", cfg.Height))
	}
	if cfg.Supersample < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("supersample must be at least 1, got %d", cfg.Supersample))
	}
	if cfg.Margin < 0 || 2*cfg.Margin >= float64(min(cfg.Width, cfg.Height)) {
		return utils.NewConfigValidationError(path, errors.Errorf("margin %.1f does not fit a %dx%d image", cfg.Margin, cfg.Width, cfg.Height))
	}
	if cfg.CurveWidth <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("curve_width must be positive, got %.2f", cfg.CurveWidth))
	}
	if cfg.Ambient < 0 || cfg.Ambient > 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("ambient must be within [0, 1], got %.2f", cfg.Ambient))
	}
	for _, field := range []struct{ name, value string }{
		{"mesh_color", cfg.MeshColor},
		{"curve_color", cfg.CurveColor},
		{"background", cfg.Background},
	} {
		if field.value == "" {
			return utils.NewConfigValidationFieldRequiredError(path, field.name)
		}
		if _, err := rimage.ParseColor(field.value); err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, field.name))
		}
	}
	return nil
}

type palette struct {
	mesh, curve, background colorful.Color
}

func (cfg *Config) palette() (palette, error) {
	var p palette
	var err error
	if p.mesh, err = rimage.ParseColor(cfg.MeshColor); err != nil {
		return p, errors.Wrap(err, "mesh colour")
	}
	if p.curve, err = rimage.ParseColor(cfg.CurveColor); err != nil {
		return p, errors.Wrap(err, "curve colour")
	}
	if p.background, err = rimage.ParseColor(cfg.Background); err != nil {
		return p, errors.Wrap(err, "background colour")
	}
	return p, nil
}

// Image is one rendered view.
type Image struct {
	Name  string
	Image image.Image
}

// Render captures every view of Views in order, rotating a copy of the scene cumulatively. The
// scene passed in keeps its orientation. Views are drawn concurrently once their orientations are
// known.
func Render(ctx context.Context, scene *Scene, cfg Config) ([]Image, error) {
	if err := cfg.Validate("render"); err != nil {
		return nil, err
	}
	if len(scene.triangles) == 0 && len(scene.curve) == 0 {
		return nil, errors.New("nothing to render")
	}
	pal, err := cfg.palette()
	if err != nil {
		return nil, err
	}

	views := Views()
	poses := make([]*Scene, 0, len(views))
	working := scene.Clone()
	for _, v := range views {
		working.Rotate(v.Degrees, v.Axis)
		poses = append(poses, working.Clone())
	}

	out := make([]Image, len(views))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range views {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Image{Name: v.FileName(), Image: renderView(poses[i], cfg, pal, v.Name)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type face struct {
	pts   [3]r3.Vector
	depth float64
	light float64
}

// renderView draws the scene under its current orientation with an orthographic camera looking
// down -Z, far faces first.
func renderView(s *Scene, cfg Config, pal palette, label string) image.Image {
	ss := float64(cfg.Supersample)
	w, h := cfg.Width*cfg.Supersample, cfg.Height*cfg.Supersample

	faces := make([]face, 0, len(s.triangles))
	for _, tri := range s.triangles {
		var f face
		for i, p := range tri {
			f.pts[i] = s.apply(p)
			f.depth += f.pts[i].Z / 3
		}
		n := spatialmath.PlaneNormal(f.pts[0], f.pts[1], f.pts[2])
		f.light = cfg.Ambient + (1-cfg.Ambient)*math.Abs(n.Z)
		faces = append(faces, f)
	}
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })
	curve := make([]r3.Vector, 0, len(s.curve))
	for _, p := range s.curve {
		curve = append(curve, s.apply(p))
	}

	proj := fitProjection(faces, curve, float64(w), float64(h), cfg.Margin*ss)

	dc := gg.NewContext(w, h)
	dc.SetColor(rimage.NRGBA(pal.background))
	dc.Clear()
	dc.SetLineJoinRound()
	dc.SetLineWidth(1)
	for _, f := range faces {
		for i, p := range f.pts {
			x, y := proj(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.SetColor(rimage.NRGBA(rimage.Shade(pal.mesh, f.light)))
		// stroking the fill hides seams between neighbouring faces
		dc.FillPreserve()
		dc.Stroke()
	}

	if len(curve) > 0 {
		dc.SetColor(rimage.NRGBA(pal.curve))
		dc.SetLineWidth(cfg.CurveWidth * ss)
		dc.SetLineCapRound()
		for i, p := range curve {
			x, y := proj(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	if cfg.Labels {
		rimage.DrawLabel(dc, label, image.Point{X: int(cfg.Margin * ss / 2), Y: int(cfg.Margin * ss / 2)},
			color.White, color.Black, 14*ss, 4*ss)
	}

	if cfg.Supersample == 1 {
		return dc.Image()
	}
	return imaging.Resize(dc.Image(), cfg.Width, cfg.Height, imaging.Lanczos)
}

// fitProjection maps scene X and Y onto image pixels so that everything fits inside the margin,
// keeping the aspect ratio and centring the geometry.
func fitProjection(faces []face, curve []r3.Vector, w, h, margin float64) func(r3.Vector) (float64, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p r3.Vector) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, f := range faces {
		for _, p := range f.pts {
			grow(p)
		}
	}
	for _, p := range curve {
		grow(p)
	}

	spanX, spanY := maxX-minX, maxY-minY
	scale := math.Inf(1)
	if spanX > 0 {
		scale = (w - 2*margin) / spanX
	}
	if spanY > 0 {
		scale = math.Min(scale, (h-2*margin)/spanY)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return func(p r3.Vector) (float64, float64) {
		return w/2 + (p.X-cx)*scale, h/2 - (p.Y-cy)*scale
	}
}
