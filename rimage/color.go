package rimage

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

var namedColors = map[string]string{
	"black": "#000000",
	"blue":  "#0000ff",
	"gray":  "#808080",
	"green": "#008000",
	"grey":  "#808080",
	"red":   "#ff0000",
	"skin":  "#e8beac",
	"white": "#ffffff",
}

// ParseColor accepts a hex colour such as "#a0b0c0" or one of a few names ("grey", "blue", ...).
func ParseColor(s string) (colorful.Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[key]; ok {
		key = hex
	}
	c, err := colorful.Hex(key)
	if err != nil {
		return colorful.Color{}, errors.Errorf("unknown colour %q", s)
	}
	return c, nil
}

// Shade darkens c by a lighting intensity in [0, 1], 1 leaving it unchanged.
func Shade(c colorful.Color, intensity float64) colorful.Color {
	return colorful.Color{R: c.R * intensity, G: c.G * intensity, B: c.B * intensity}.Clamped()
}

// NRGBA converts to an opaque standard library colour.
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
