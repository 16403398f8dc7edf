package renderer

import (
	"sort"

	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// defaultMaterial is used for meshes without one.
var defaultMaterial = &scene.Material{Name: "default", Color: [4]float32{0.8, 0.8, 0.8, 1}}

// drawItem is one mesh ready to draw.
type drawItem struct {
	node     *scene.Node
	world    math.Mat4
	geometry *scene.Geometry
	material *scene.Material
	depth    float32 // squared distance from the eye
}

// collectDraws flattens the scene into opaque items followed by transparent
// items sorted back to front.
func collectDraws(s *scene.Scene, eye math.Vec3) []drawItem {
	var opaque, transparent []drawItem
	s.Walk(func(n *scene.Node) bool {
		if n.Mesh == nil || n.Mesh.Geometry == nil || len(n.Mesh.Geometry.Positions) == 0 {
			return true
		}
		mat := n.Mesh.Material
		if mat == nil {
			mat = defaultMaterial
		}
		world := n.WorldMatrix()
		item := drawItem{node: n, world: world, geometry: n.Mesh.Geometry, material: mat}
		if mat.Transparent() {
			center := world.TransformVec3(math.Vec3{})
			d := center.Sub(eye)
			item.depth = d.Dot(d)
			transparent = append(transparent, item)
		} else {
			opaque = append(opaque, item)
		}
		return true
	})

	sort.SliceStable(transparent, func(i, j int) bool {
		return transparent[i].depth > transparent[j].depth
	})
	return append(opaque, transparent...)
}

// interleave packs a geometry into pos3 normal3 uv2 vertices. Missing
// normals or uvs are zero-filled.
func interleave(g *scene.Geometry) []float32 {
	count := g.VertexCount()
	out := make([]float32, 0, count*vertexStride)
	hasNormals := len(g.Normals) >= count*3
	hasUVs := len(g.UVs) >= count*2
	for i := 0; i < count; i++ {
		out = append(out, g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2])
		if hasNormals {
			out = append(out, g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2])
		} else {
			out = append(out, 0, 0, 0)
		}
		if hasUVs {
			out = append(out, g.UVs[i*2], g.UVs[i*2+1])
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}

// sequentialIndices returns 0..n-1 for non-indexed geometry.
func sequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
