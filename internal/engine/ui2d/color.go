package ui2d

import colorful "github.com/lucasb-eyer/go-colorful"

// Color represents an RGBA color with float components (0.0 to 1.0).
type Color struct {
	R, G, B, A float32
}

// Predefined colors for UI theming.
var (
	ColorTransparent = Color{0, 0, 0, 0}
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}

	ColorPanelBg      = Hex(0x14141f).WithAlpha(0.92)
	ColorPanelBorder  = Hex(0x4d4d66)
	ColorButtonNormal = Hex(0x262633)
	ColorButtonHover  = Hex(0x404059)
	ColorButtonActive = Hex(0x1a4d80)
	ColorInputBg      = Hex(0x0d0d14)
	ColorInputBorder  = Hex(0x33334d)
	ColorText         = Hex(0xe6e6e6)
	ColorTextDim      = Hex(0x808099)
	ColorHighlight    = Hex(0x3399e6)
	ColorError        = Hex(0xff6b6b)
)

// RGBA creates a color from 8-bit RGBA values (0-255).
func RGBA(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255.0,
		G: float32(g) / 255.0,
		B: float32(b) / 255.0,
		A: float32(a) / 255.0,
	}
}

// Hex creates an opaque color from 0xRRGGBB.
func Hex(c uint32) Color {
	return RGBA(uint8(c>>16), uint8(c>>8), uint8(c), 255)
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

func fromColorful(cc colorful.Color, a float32) Color {
	cc = cc.Clamped()
	return Color{R: float32(cc.R), G: float32(cc.G), B: float32(cc.B), A: a}
}

// WithAlpha returns a copy of the color with a different alpha value.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}

// Darken returns the color blended towards black by factor.
func (c Color) Darken(factor float32) Color {
	black := colorful.Color{}
	return fromColorful(c.toColorful().BlendRgb(black, float64(factor)), c.A)
}

// Lighten returns the color blended towards white by factor.
func (c Color) Lighten(factor float32) Color {
	white := colorful.Color{R: 1, G: 1, B: 1}
	return fromColorful(c.toColorful().BlendRgb(white, float64(factor)), c.A)
}
