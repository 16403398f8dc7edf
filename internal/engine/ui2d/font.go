package ui2d

import (
	"image"
	"image/draw"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Printable ASCII range baked into the atlas.
const (
	firstGlyph  = 32
	lastGlyph   = 126
	atlasCols   = 16
	missingRune = '?'
)

// Font is a fixed-width bitmap font baked into a texture atlas.
type Font struct {
	atlas  *image.RGBA
	glyphW int
	glyphH int
	texID  uint32
}

// NewFont bakes the atlas and uploads it. Requires a current GL context.
func NewFont() *Font {
	f := newFontAtlas()
	f.upload()
	return f
}

// newFontAtlas rasterizes the glyphs into an RGBA image with white ink and
// coverage in alpha.
func newFontAtlas() *Font {
	face := basicfont.Face7x13
	f := &Font{glyphW: face.Advance, glyphH: face.Height}

	count := lastGlyph - firstGlyph + 1
	rows := (count + atlasCols - 1) / atlasCols
	f.atlas = image.NewRGBA(image.Rect(0, 0, atlasCols*f.glyphW, rows*f.glyphH))
	draw.Draw(f.atlas, f.atlas.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: f.atlas, Src: image.White, Face: face}
	for r := firstGlyph; r <= lastGlyph; r++ {
		col, row := f.cell(rune(r))
		d.Dot = fixed.P(col*f.glyphW, row*f.glyphH+face.Ascent)
		d.DrawString(string(rune(r)))
	}
	return f
}

func (f *Font) cell(r rune) (col, row int) {
	if r < firstGlyph || r > lastGlyph {
		r = missingRune
	}
	i := int(r - firstGlyph)
	return i % atlasCols, i / atlasCols
}

func (f *Font) upload() {
	b := f.atlas.Bounds()
	gl.GenTextures(1, &f.texID)
	gl.BindTexture(gl.TEXTURE_2D, f.texID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&f.atlas.Pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// GlyphSize returns the glyph cell size in pixels.
func (f *Font) GlyphSize() (int, int) {
	return f.glyphW, f.glyphH
}

// GetGlyphUV returns the atlas coordinates of a glyph. Runes outside the
// atlas render as '?'.
func (f *Font) GetGlyphUV(r rune) (u0, v0, u1, v1 float32) {
	col, row := f.cell(r)
	b := f.atlas.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	u0 = float32(col*f.glyphW) / w
	v0 = float32(row*f.glyphH) / h
	u1 = float32((col+1)*f.glyphW) / w
	v1 = float32((row+1)*f.glyphH) / h
	return u0, v0, u1, v1
}

// MeasureText returns the size of text; lines break on '\n'.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	if text == "" {
		return 0, 0
	}
	lines, longest, cur := 1, 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		longest = max(longest, cur)
	}
	return float32(longest*f.glyphW) * scale, float32(lines*f.glyphH) * scale
}

// TextureID returns the GL atlas texture.
func (f *Font) TextureID() uint32 {
	return f.texID
}

// Close releases the atlas texture.
func (f *Font) Close() {
	if f.texID != 0 {
		gl.DeleteTextures(1, &f.texID)
		f.texID = 0
	}
}
