package ui2d

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Corners of a quad as two triangles: top-left, top-right, bottom-right,
// then top-left, bottom-right, bottom-left. Face culling must be off.
var quadCorners = [6][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 1}}

// quadBatch collects quads for one shader and streams them in a single draw.
// Vertices are pos3, then uv2 when uv is set, then rgba4 when color is set,
// bound to consecutive attribute locations.
type quadBatch struct {
	uv, color bool
	vertices  []float32
	vao, vbo  uint32
}

func newQuadBatch(uv, color bool) *quadBatch {
	b := &quadBatch{uv: uv, color: color}
	b.vertices = make([]float32, 0, 1024*b.floatsPerVertex())
	return b
}

func (b *quadBatch) floatsPerVertex() int {
	n := 3
	if b.uv {
		n += 2
	}
	if b.color {
		n += 4
	}
	return n
}

// add appends a quad. uv is the texture rectangle mapped onto it; a negative
// height flips the texture vertically.
func (b *quadBatch) add(x, y, w, h float32, uv Rect, c Color) {
	for _, k := range quadCorners {
		b.vertices = append(b.vertices, x+k[0]*w, y+k[1]*h, 0)
		if b.uv {
			b.vertices = append(b.vertices, uv.X+k[0]*uv.W, uv.Y+k[1]*uv.H)
		}
		if b.color {
			b.vertices = append(b.vertices, c.R, c.G, c.B, c.A)
		}
	}
}

func (b *quadBatch) reset() {
	b.vertices = b.vertices[:0]
}

func (b *quadBatch) vertexCount() int {
	return len(b.vertices) / b.floatsPerVertex()
}

// init creates the GPU buffers. Requires a current GL context.
func (b *quadBatch) init() {
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	stride := int32(b.floatsPerVertex() * 4)
	var loc uint32
	var offset uintptr
	attrib := func(size int32) {
		gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, stride, offset)
		gl.EnableVertexAttribArray(loc)
		loc++
		offset += uintptr(size) * 4
	}
	attrib(3)
	if b.uv {
		attrib(2)
	}
	if b.color {
		attrib(4)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// flush uploads and draws the queued quads with the bound program.
func (b *quadBatch) flush() {
	if len(b.vertices) == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.vertices)*4, unsafe.Pointer(&b.vertices[0]), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(b.vertexCount()))
}

func (b *quadBatch) delete() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
}

// capState remembers the capabilities the UI passes toggle.
type capState struct {
	blend, depth, cull bool
}

func saveCaps() capState {
	return capState{
		blend: gl.IsEnabled(gl.BLEND),
		depth: gl.IsEnabled(gl.DEPTH_TEST),
		cull:  gl.IsEnabled(gl.CULL_FACE),
	}
}

func (s capState) restore() {
	setCap(gl.BLEND, s.blend)
	setCap(gl.DEPTH_TEST, s.depth)
	setCap(gl.CULL_FACE, s.cull)
}

func setCap(c uint32, on bool) {
	if on {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}
