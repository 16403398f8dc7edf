// Package ui2d provides an immediate-mode 2D UI drawn with OpenGL on top of
// the viewport.
package ui2d

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenedit/internal/engine/shader"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Renderer draws UI quads and text in window coordinates with a y-down
// orthographic projection.
type Renderer struct {
	screenWidth  int
	screenHeight int

	solidShader *shader.Program
	textShader  *shader.Program
	sceneShader *shader.Program // offscreen viewport blit

	solid *quadBatch // pos + color
	text  *quadBatch // pos + uv + color
	blit  *quadBatch // pos + uv

	font *Font
}

var _ Drawer = (*Renderer)(nil)

// New creates a new 2D UI renderer. Requires a current GL context.
func New(width, height int) (*Renderer, error) {
	r := &Renderer{
		screenWidth:  width,
		screenHeight: height,
		solid:        newQuadBatch(false, true),
		text:         newQuadBatch(true, true),
		blit:         newQuadBatch(true, false),
	}

	programs := []struct {
		name   string
		dst    **shader.Program
		vs, fs string
	}{
		{"solid", &r.solidShader, solidVertexShader, solidFragmentShader},
		{"text", &r.textShader, textVertexShader, textFragmentShader},
		{"scene", &r.sceneShader, sceneVertexShader, sceneFragmentShader},
	}
	for _, p := range programs {
		prog, err := shader.New(p.vs, p.fs)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create %s shader: %w", p.name, err)
		}
		*p.dst = prog
	}

	for _, b := range []*quadBatch{r.solid, r.text, r.blit} {
		b.init()
	}
	r.font = NewFont()

	return r, nil
}

// Resize updates the screen dimensions.
func (r *Renderer) Resize(width, height int) {
	r.screenWidth = width
	r.screenHeight = height
}

// GetScreenSize returns the current screen dimensions.
func (r *Renderer) GetScreenSize() (int, int) {
	return r.screenWidth, r.screenHeight
}

func (r *Renderer) projection() math.Mat4 {
	return math.Ortho(0, float32(r.screenWidth), float32(r.screenHeight), 0, -1, 1)
}

// Begin starts a new UI frame.
func (r *Renderer) Begin() {
	r.solid.reset()
	r.text.reset()
}

// End draws everything queued since Begin: panels first, text on top.
func (r *Renderer) End() {
	caps := saveCaps()
	defer caps.restore()

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	proj := r.projection()

	r.solidShader.Use()
	gl.UniformMatrix4fv(r.solidShader.Uniform("uProjection"), 1, false, proj.Ptr())
	r.solid.flush()

	if r.font != nil {
		r.textShader.Use()
		gl.UniformMatrix4fv(r.textShader.Uniform("uProjection"), 1, false, proj.Ptr())
		gl.Uniform1i(r.textShader.Uniform("uTexture"), 0)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.font.TextureID())
		r.text.flush()
	}

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
}

// Close releases renderer resources.
func (r *Renderer) Close() {
	if r.font != nil {
		r.font.Close()
	}
	for _, b := range []*quadBatch{r.solid, r.text, r.blit} {
		b.delete()
	}
	for _, p := range []*shader.Program{r.solidShader, r.textShader, r.sceneShader} {
		if p != nil {
			p.Delete()
		}
	}
}

// DrawRect draws a filled rectangle.
func (r *Renderer) DrawRect(x, y, width, height float32, color Color) {
	r.solid.add(x, y, width, height, Rect{}, color)
}

// DrawRectOutline draws a rectangle outline.
func (r *Renderer) DrawRectOutline(x, y, width, height, thickness float32, color Color) {
	inner := height - 2*thickness
	r.DrawRect(x, y, width, thickness, color)
	r.DrawRect(x, y+height-thickness, width, thickness, color)
	r.DrawRect(x, y+thickness, thickness, inner, color)
	r.DrawRect(x+width-thickness, y+thickness, thickness, inner, color)
}

// DrawPanel draws a panel with border.
func (r *Renderer) DrawPanel(x, y, width, height float32, bg, border Color) {
	r.DrawRect(x, y, width, height, bg)
	r.DrawRectOutline(x, y, width, height, 1, border)
}

// DrawText draws text with its top-left corner at x, y. Newlines start a
// new line at x.
func (r *Renderer) DrawText(x, y float32, text string, scale float32, color Color) {
	if r.font == nil {
		return
	}

	gw, gh := r.font.GlyphSize()
	charW := float32(gw) * scale
	charH := float32(gh) * scale

	curX := x
	for _, ch := range text {
		if ch == '\n' {
			curX = x
			y += charH
			continue
		}
		u0, v0, u1, v1 := r.font.GetGlyphUV(ch)
		r.text.add(curX, y, charW, charH, Rect{u0, v0, u1 - u0, v1 - v0}, color)
		curX += charW
	}
}

// MeasureText returns the width and height of rendered text.
func (r *Renderer) MeasureText(text string, scale float32) (float32, float32) {
	if r.font == nil {
		return 0, 0
	}
	return r.font.MeasureText(text, scale)
}

// DrawSceneTexture draws the offscreen viewport immediately. Call it before
// End so the UI lands on top.
func (r *Renderer) DrawSceneTexture(x, y, w, h float32, textureID uint32) {
	if textureID == 0 {
		return
	}

	caps := saveCaps()
	defer caps.restore()
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	proj := r.projection()
	r.sceneShader.Use()
	gl.UniformMatrix4fv(r.sceneShader.Uniform("uProjection"), 1, false, proj.Ptr())
	gl.Uniform1i(r.sceneShader.Uniform("uTexture"), 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	// GL textures start at the bottom row
	r.blit.reset()
	r.blit.add(x, y, w, h, Rect{0, 1, 1, -1}, Color{})
	r.blit.flush()

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
}
