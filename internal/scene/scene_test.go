package scene

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/pkg/math"
)

func cube() *Geometry {
	return &Geometry{
		UUID:      "cube",
		Positions: []float32{-1, -1, -1, 1, 1, 1, 1, -1, 1},
		Indices:   []uint32{0, 1, 2},
	}
}

func TestNewDefaultFixedNodes(t *testing.T) {
	s := NewDefault(config.Default().Viewport)

	fixed := s.FixedNodes()
	require.Len(t, fixed, 4)
	assert.Empty(t, s.Editable())

	cam := s.FirstOfKind(KindCamera)
	require.NotNil(t, cam)
	assert.Equal(t, math.V3(0, 0, 30), cam.Position)
	assert.Equal(t, float32(75), cam.Camera.FOV)

	grid := s.FirstOfKind(KindGrid)
	require.NotNil(t, grid)
	assert.Equal(t, float32(-10), grid.Position.Y)
	assert.Equal(t, 2000, grid.Grid.Divisions)
	assert.Equal(t, [3]float32{0, 1, float32(0xcc) / 255}, grid.Grid.CenterColor)

	sun := s.FirstOfKind(KindDirectionalLight)
	require.NotNil(t, sun)
	assert.Equal(t, math.V3(5, 10, 7.5), sun.Position)

	amb := s.FirstOfKind(KindAmbientLight)
	require.NotNil(t, amb)
	assert.Equal(t, float32(0.8), amb.Light.Intensity)

	for _, n := range fixed {
		assert.True(t, n.Fixed, n.Name)
	}
}

func TestReplaceContentKeepsFixed(t *testing.T) {
	s := NewDefault(config.Default().Viewport)
	fixedBefore := s.FixedNodes()

	a := NewGroup("a")
	s.Add(a)
	sel := NewSelection(s)
	sel.Set(a)

	b, c := NewGroup("b"), NewGroup("c")
	s.ReplaceContent([]*Node{b, c})

	assert.Equal(t, fixedBefore, s.FixedNodes())
	assert.Equal(t, []*Node{b, c}, s.Editable())
	assert.True(t, sel.Empty(), "selection on removed node must be cleared")
}

func TestRemoveClearsNestedSelection(t *testing.T) {
	s := New()
	root := NewGroup("model")
	child := NewMesh("part", cube(), &Material{Color: [4]float32{1, 1, 1, 1}})
	root.Add(child)
	s.Add(root)

	sel := NewSelection(s)
	sel.Set(child)
	require.True(t, sel.Valid(s))

	other := NewGroup("other")
	s.Add(other)
	s.Remove(other)
	assert.Same(t, child, sel.Node(), "unrelated removal keeps selection")

	assert.True(t, s.Remove(root))
	assert.Nil(t, sel.Node())
	assert.False(t, s.Remove(root))
}

func TestSelectionRejectsFixed(t *testing.T) {
	s := NewDefault(config.Default().Viewport)
	sel := NewSelection(s)
	sel.Set(s.FirstOfKind(KindGrid))
	assert.True(t, sel.Empty())
}

func TestNodeReparent(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	child := NewGroup("child")

	a.Add(child)
	b.Add(child)

	assert.Empty(t, a.Children)
	assert.Equal(t, []*Node{child}, b.Children)
	assert.Same(t, b, child.Parent())
	assert.Same(t, b, child.Root())
}

func TestWorldMatrix(t *testing.T) {
	parent := NewGroup("parent")
	parent.Position = math.V3(10, 0, 0)
	parent.Scale = math.Splat(2)

	child := NewGroup("child")
	child.Position = math.V3(1, 0, 0)
	parent.Add(child)

	p := child.WorldMatrix().TransformVec3(math.Vec3{})
	assert.InDelta(t, 12, p.X, 1e-5)
	assert.InDelta(t, 0, p.Y, 1e-5)
}

func TestSetMatrix(t *testing.T) {
	n := NewGroup("n")
	n.SetMatrix(math.Compose(math.V3(1, 2, 3), math.V3(stdmath.Pi/4, 0, 0), math.Splat(3)))

	assert.InDelta(t, 1, n.Position.X, 1e-5)
	assert.InDelta(t, 3, n.Position.Z, 1e-5)
	assert.InDelta(t, stdmath.Pi/4, n.Rotation.X, 1e-5)
	assert.InDelta(t, 3, n.Scale.Y, 1e-5)
}

func TestWorldBounds(t *testing.T) {
	root := NewGroup("root")
	root.Position = math.V3(0, 5, 0)
	mesh := NewMesh("m", cube(), &Material{})
	root.Add(mesh)

	min, max, ok := root.WorldBounds()
	require.True(t, ok)
	assert.InDelta(t, -1, min.X, 1e-5)
	assert.InDelta(t, 4, min.Y, 1e-5)
	assert.InDelta(t, 6, max.Y, 1e-5)

	_, _, ok = NewGroup("empty").WorldBounds()
	assert.False(t, ok)
}

func TestFindByUUID(t *testing.T) {
	s := New()
	root := NewGroup("root")
	leaf := NewGroup("leaf")
	root.Add(leaf)
	s.Add(root)

	assert.Same(t, leaf, s.FindByUUID(leaf.UUID))
	assert.Nil(t, s.FindByUUID("missing"))
	assert.True(t, s.Contains(leaf))
	assert.False(t, s.Contains(NewGroup("stray")))
}

func TestGeometryBounds(t *testing.T) {
	min, max, ok := cube().Bounds()
	require.True(t, ok)
	assert.Equal(t, math.V3(-1, -1, -1), min)
	assert.Equal(t, math.V3(1, 1, 1), max)

	_, _, ok = (&Geometry{}).Bounds()
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Mesh", KindMesh.String())
	assert.Equal(t, "Group", KindGroup.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}
