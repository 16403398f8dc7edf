// Package scene holds the editor scene graph: nodes, geometry, materials and the selection.
package scene

import (
	"image"

	"github.com/google/uuid"

	"github.com/Faultbox/scenedit/pkg/math"
)

// Kind identifies what a node represents.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindAmbientLight
	KindDirectionalLight
	KindCamera
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindMesh:
		return "Mesh"
	case KindAmbientLight:
		return "AmbientLight"
	case KindDirectionalLight:
		return "DirectionalLight"
	case KindCamera:
		return "PerspectiveCamera"
	case KindGrid:
		return "GridHelper"
	default:
		return "Unknown"
	}
}

// Geometry is an indexed triangle list. Normals and UVs may be empty.
type Geometry struct {
	UUID      string
	Positions []float32 // xyz
	Normals   []float32 // xyz
	UVs       []float32 // uv
	Indices   []uint32
}

// VertexCount returns the number of vertices in the position stream.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Bounds returns the local-space bounding box. ok is false for empty geometry.
func (g *Geometry) Bounds() (min, max math.Vec3, ok bool) {
	if len(g.Positions) < 3 {
		return min, max, false
	}
	min = math.V3(g.Positions[0], g.Positions[1], g.Positions[2])
	max = min
	for i := 3; i+2 < len(g.Positions); i += 3 {
		p := math.V3(g.Positions[i], g.Positions[i+1], g.Positions[i+2])
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max, true
}

// Texture is a decoded RGBA image.
type Texture struct {
	UUID  string
	Image *image.RGBA
}

// Material is a PBR base colour with an optional texture.
type Material struct {
	UUID        string
	Name        string
	Color       [4]float32 // linear RGBA
	Texture     *Texture
	DoubleSided bool
}

// Transparent reports whether the material needs blending.
func (m *Material) Transparent() bool {
	return m.Color[3] < 1
}

// Mesh binds a geometry to a material.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// Light parameters for ambient and directional lights.
type Light struct {
	Color     [3]float32
	Intensity float32
	Target    math.Vec3 // directional only
}

// Camera parameters. The camera looks from the node position at Target.
type Camera struct {
	FOV    float32 // degrees
	Near   float32
	Far    float32
	Target math.Vec3
}

// Grid parameters for the ground helper.
type Grid struct {
	Size        float32
	Divisions   int
	CenterColor [3]float32
	Color       [3]float32
	Opacity     float32
}

// Node is an element of the scene graph.
type Node struct {
	UUID string
	Name string
	Kind Kind

	Position math.Vec3
	Rotation math.Vec3 // Euler XYZ, radians
	Scale    math.Vec3

	Mesh   *Mesh
	Light  *Light
	Camera *Camera
	Grid   *Grid

	// Fixed nodes are scene infrastructure. They are never saved and survive loads.
	Fixed bool

	Children []*Node
	parent   *Node
}

// NewNode creates a node with identity transform and a fresh UUID.
func NewNode(kind Kind, name string) *Node {
	return &Node{
		UUID:  uuid.NewString(),
		Name:  name,
		Kind:  kind,
		Scale: math.Splat(1),
	}
}

// NewGroup creates an empty group node.
func NewGroup(name string) *Node {
	return NewNode(KindGroup, name)
}

// NewMesh creates a mesh node.
func NewMesh(name string, geom *Geometry, mat *Material) *Node {
	n := NewNode(KindMesh, name)
	n.Mesh = &Mesh{Geometry: geom, Material: mat}
	return n
}

// Parent returns the parent node, nil for scene roots.
func (n *Node) Parent() *Node {
	return n.parent
}

// Add appends child, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.Children = append(n.Children, child)
}

// RemoveChild detaches child. Returns false if it was not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// LocalMatrix composes translation, rotation and scale.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Compose(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix multiplies the local matrices of n and its ancestors.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// SetMatrix replaces the transform with the decomposition of m.
func (n *Node) SetMatrix(m math.Mat4) {
	n.Position, n.Rotation, n.Scale = m.Decompose()
}

// Walk visits n and its descendants depth-first. Returning false stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Contains reports whether target is n or one of its descendants.
func (n *Node) Contains(target *Node) bool {
	found := false
	n.Walk(func(c *Node) bool {
		if c == target {
			found = true
		}
		return !found
	})
	return found
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// WorldBounds returns the world-space box around every mesh in the subtree.
func (n *Node) WorldBounds() (min, max math.Vec3, ok bool) {
	n.Walk(func(c *Node) bool {
		if c.Mesh == nil || c.Mesh.Geometry == nil {
			return true
		}
		lmin, lmax, gok := c.Mesh.Geometry.Bounds()
		if !gok {
			return true
		}
		world := c.WorldMatrix()
		for i := 0; i < 8; i++ {
			corner := math.V3(lmin.X, lmin.Y, lmin.Z)
			if i&1 != 0 {
				corner.X = lmax.X
			}
			if i&2 != 0 {
				corner.Y = lmax.Y
			}
			if i&4 != 0 {
				corner.Z = lmax.Z
			}
			p := world.TransformVec3(corner)
			if !ok {
				min, max, ok = p, p, true
				continue
			}
			min = min.Min(p)
			max = max.Max(p)
		}
		return true
	})
	return min, max, ok
}

// MeshCount returns the number of mesh nodes in the subtree.
func (n *Node) MeshCount() int {
	count := 0
	n.Walk(func(c *Node) bool {
		if c.Mesh != nil {
			count++
		}
		return true
	})
	return count
}
