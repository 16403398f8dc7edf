// Package renderer draws the scene graph with OpenGL.
package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/engine/camera"
	"github.com/Faultbox/scenedit/internal/engine/debug"
	"github.com/Faultbox/scenedit/internal/engine/lighting"
	"github.com/Faultbox/scenedit/internal/engine/shader"
	"github.com/Faultbox/scenedit/internal/logger"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// vertexStride is the interleaved mesh vertex size in float32s.
const vertexStride = 8

// selectionColor is the sRGB color of the selection box.
var selectionColor = [3]float32{1, 0.8, 0}

// gpuMesh is an uploaded geometry.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
	seen          uint64
}

// gpuLines is an uploaded line list.
type gpuLines struct {
	vao, vbo    uint32
	vertexCount int32
}

// Renderer draws scenes. All methods must run on the GL thread.
type Renderer struct {
	meshProgram *shader.Program
	lineProgram *shader.Program

	meshes   map[*scene.Geometry]*gpuMesh
	textures map[*scene.Texture]uint32
	grids    map[*scene.Grid]*gpuLines
	bbox     gpuLines

	frame uint64
	log   *zap.Logger
}

// New initializes OpenGL and creates the scene renderer.
// Must be called after the GL context is current.
func New() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &Renderer{
		meshes:   make(map[*scene.Geometry]*gpuMesh),
		textures: make(map[*scene.Texture]uint32),
		grids:    make(map[*scene.Grid]*gpuLines),
		log:      logger.Named("renderer"),
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	r.meshProgram, err = shader.New(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	r.lineProgram, err = shader.New(lineVertexShader, lineFragmentShader)
	if err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("line shader: %w", err)
	}

	r.bbox = newLineBuffer(gl.DYNAMIC_DRAW)
	return r, nil
}

// Close releases every GPU resource.
func (r *Renderer) Close() {
	r.log.Info("closing renderer",
		zap.Int("meshes", len(r.meshes)),
		zap.Int("textures", len(r.textures)),
	)
	for g, m := range r.meshes {
		m.delete()
		delete(r.meshes, g)
	}
	for t, id := range r.textures {
		gl.DeleteTextures(1, &id)
		delete(r.textures, t)
	}
	for g, l := range r.grids {
		l.delete()
		delete(r.grids, g)
	}
	r.bbox.delete()
	r.meshProgram.Delete()
	r.lineProgram.Delete()
}

// ClearColor converts an sRGB clear color to the linear value written to
// the offscreen target.
func ClearColor(c [4]float32) [4]float32 {
	return [4]float32{
		math32.Pow(c[0], 2.2),
		math32.Pow(c[1], 2.2),
		math32.Pow(c[2], 2.2),
		c[3],
	}
}

// Render draws the scene and the selection box into the bound framebuffer.
func (r *Renderer) Render(s *scene.Scene, selected *scene.Node, cam *camera.OrbitCamera) {
	r.frame++
	viewProj := cam.ViewProjection()
	env := lighting.FromScene(s)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	r.drawMeshes(collectDraws(s, cam.Position()), viewProj, env)
	r.drawGrids(s, viewProj)
	r.drawSelection(selected, viewProj)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.CULL_FACE)
	gl.BindVertexArray(0)
	gl.UseProgram(0)

	r.prune(s)
}

func (r *Renderer) drawMeshes(items []drawItem, viewProj math.Mat4, env lighting.Environment) {
	p := r.meshProgram
	p.Use()
	gl.Uniform3f(p.Uniform("uAmbient"), env.Ambient[0], env.Ambient[1], env.Ambient[2])
	gl.Uniform3f(p.Uniform("uLightColor"), env.LightColor[0], env.LightColor[1], env.LightColor[2])
	gl.Uniform3f(p.Uniform("uLightDir"), env.LightDir.X, env.LightDir.Y, env.LightDir.Z)
	gl.Uniform1i(p.Uniform("uTexture"), 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, item := range items {
		mesh := r.mesh(item.geometry)
		if mesh == nil {
			continue
		}

		mvp := viewProj.Mul(item.world)
		gl.UniformMatrix4fv(p.Uniform("uMVP"), 1, false, mvp.Ptr())
		gl.UniformMatrix4fv(p.Uniform("uModel"), 1, false, item.world.Ptr())

		mat := item.material
		gl.Uniform4f(p.Uniform("uBaseColor"), mat.Color[0], mat.Color[1], mat.Color[2], mat.Color[3])
		if tex := r.texture(mat.Texture); tex != 0 {
			gl.Uniform1i(p.Uniform("uHasTexture"), 1)
			gl.BindTexture(gl.TEXTURE_2D, tex)
		} else {
			gl.Uniform1i(p.Uniform("uHasTexture"), 0)
			gl.BindTexture(gl.TEXTURE_2D, 0)
		}

		if mat.DoubleSided {
			gl.Disable(gl.CULL_FACE)
		} else {
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(gl.BACK)
		}
		if mat.Transparent() {
			gl.Enable(gl.BLEND)
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
			gl.DepthMask(false)
		} else {
			gl.Disable(gl.BLEND)
			gl.DepthMask(true)
		}

		gl.BindVertexArray(mesh.vao)
		gl.DrawElements(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_INT, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (r *Renderer) drawGrids(s *scene.Scene, viewProj math.Mat4) {
	p := r.lineProgram
	p.Use()
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)

	s.Walk(func(n *scene.Node) bool {
		if n.Grid == nil {
			return true
		}
		lines := r.grid(n.Grid)
		if lines == nil {
			return true
		}
		mvp := viewProj.Mul(n.WorldMatrix())
		gl.UniformMatrix4fv(p.Uniform("uMVP"), 1, false, mvp.Ptr())
		gl.Uniform1f(p.Uniform("uOpacity"), n.Grid.Opacity)
		gl.BindVertexArray(lines.vao)
		gl.DrawArrays(gl.LINES, 0, lines.vertexCount)
		return true
	})
	gl.DepthMask(true)
}

func (r *Renderer) drawSelection(selected *scene.Node, viewProj math.Mat4) {
	box, ok := debug.SelectionBox(selected, debug.DefaultBBoxPadding)
	if !ok {
		return
	}
	vertices := make([]debug.LineVertex, 0, debug.BBoxWireframeVertexCount)
	for i := 0; i+2 < len(box); i += 3 {
		vertices = append(vertices, debug.LineVertex{
			X: box[i], Y: box[i+1], Z: box[i+2],
			R: selectionColor[0], G: selectionColor[1], B: selectionColor[2],
		})
	}
	r.bbox.upload(debug.FlattenLines(vertices), gl.DYNAMIC_DRAW)

	p := r.lineProgram
	p.Use()
	gl.UniformMatrix4fv(p.Uniform("uMVP"), 1, false, viewProj.Ptr())
	gl.Uniform1f(p.Uniform("uOpacity"), 1)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(r.bbox.vao)
	gl.DrawArrays(gl.LINES, 0, r.bbox.vertexCount)
}

// mesh returns the GPU copy of a geometry, uploading it on first use.
func (r *Renderer) mesh(g *scene.Geometry) *gpuMesh {
	if m, ok := r.meshes[g]; ok {
		m.seen = r.frame
		return m
	}
	vertices := interleave(g)
	if len(vertices) == 0 {
		return nil
	}
	indices := g.Indices
	if len(indices) == 0 {
		indices = sequentialIndices(g.VertexCount())
	}

	m := &gpuMesh{indexCount: int32(len(indices)), seen: r.frame}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(vertexStride * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	r.meshes[g] = m
	r.log.Debug("mesh uploaded",
		zap.String("geometry", g.UUID),
		zap.Int("vertices", g.VertexCount()),
		zap.Int32("indices", m.indexCount),
	)
	return m
}

// texture returns the GL texture for t, uploading it on first use.
func (r *Renderer) texture(t *scene.Texture) uint32 {
	if t == nil || t.Image == nil || len(t.Image.Pix) == 0 {
		return 0
	}
	if id, ok := r.textures[t]; ok {
		return id
	}
	id := uploadTexture(t.Image)
	r.textures[t] = id
	return id
}

func uploadTexture(img *image.RGBA) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// grid returns the line buffer for a grid helper.
func (r *Renderer) grid(g *scene.Grid) *gpuLines {
	if l, ok := r.grids[g]; ok {
		return l
	}
	vertices := debug.GenerateGridLines(g.Size, g.Divisions, g.CenterColor, g.Color)
	if len(vertices) == 0 {
		return nil
	}
	l := newLineBuffer(gl.STATIC_DRAW)
	l.upload(debug.FlattenLines(vertices), gl.STATIC_DRAW)
	r.grids[g] = &l
	return &l
}

// textureSweepFrames is how often unreferenced textures are released.
const textureSweepFrames = 120

// prune frees meshes that were not drawn this frame and, periodically,
// textures the scene no longer references.
func (r *Renderer) prune(s *scene.Scene) {
	for g, m := range r.meshes {
		if m.seen != r.frame {
			m.delete()
			delete(r.meshes, g)
		}
	}
	if r.frame%textureSweepFrames == 0 {
		r.releaseTextures(s)
	}
}

func (r *Renderer) releaseTextures(s *scene.Scene) {
	live := make(map[*scene.Texture]bool)
	s.Walk(func(n *scene.Node) bool {
		if n.Mesh != nil && n.Mesh.Material != nil && n.Mesh.Material.Texture != nil {
			live[n.Mesh.Material.Texture] = true
		}
		return true
	})
	for t, id := range r.textures {
		if !live[t] {
			gl.DeleteTextures(1, &id)
			delete(r.textures, t)
		}
	}
}

func (m *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}

func newLineBuffer(usage uint32) gpuLines {
	var l gpuLines
	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 0, nil, usage)

	stride := int32(debug.LineVertexStride * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return l
}

func (l *gpuLines) upload(data []float32, usage uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), usage)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	l.vertexCount = int32(len(data) / debug.LineVertexStride)
}

func (l *gpuLines) delete() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		l.vao = 0
	}
	if l.vbo != 0 {
		gl.DeleteBuffers(1, &l.vbo)
		l.vbo = 0
	}
}
