// Package debug provides viewport helpers: the ground grid, selection boxes
// and screenshots.
package debug

import (
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// GenerateBBoxWireframeVertices creates line vertices for a wireframe box.
// Returns 24 vertices (12 edges × 2 endpoints), [x, y, z] per vertex.
func GenerateBBoxWireframeVertices(lo, hi math.Vec3) []float32 {
	minX, minY, minZ := lo.X, lo.Y, lo.Z
	maxX, maxY, maxZ := hi.X, hi.Y, hi.Z
	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}

// SelectionBox returns the padded wireframe around a node's world bounds.
// ok is false when the node has no geometry.
func SelectionBox(n *scene.Node, padding float32) (vertices []float32, ok bool) {
	if n == nil {
		return nil, false
	}
	lo, hi, ok := n.WorldBounds()
	if !ok {
		return nil, false
	}
	pad := math.Splat(padding)
	return GenerateBBoxWireframeVertices(lo.Sub(pad), hi.Add(pad)), true
}

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the default padding for selection boxes.
const DefaultBBoxPadding = 0.05
