// Package rimage holds the small image helpers shared by the renderers: label text and colour
// handling.
package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font labels are drawn with.
func Font() *truetype.Font {
	return font
}

// DrawString writes text with its top left corner at p.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, gg.AlignLeft)
}

// DrawLabel writes text over a filled box sized to fit it, padded by pad on every side.
func DrawLabel(dc *gg.Context, text string, p image.Point, fg, bg color.Color, size, pad float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	w, h := dc.MeasureString(text)
	dc.SetColor(bg)
	dc.DrawRectangle(float64(p.X), float64(p.Y), w+2*pad, h+2*pad)
	dc.Fill()
	DrawString(dc, text, image.Point{X: p.X + int(pad), Y: p.Y + int(pad)}, fg, size)
}
