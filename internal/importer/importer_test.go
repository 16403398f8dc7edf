package importer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/formats"
	"github.com/Faultbox/scenedit/pkg/formats/formatstest"
	"github.com/Faultbox/scenedit/pkg/math"
)

func TestImportCube(t *testing.T) {
	data, err := formatstest.Cube(formatstest.CubeOptions{
		Translation: [3]float64{0, 1, 0},
		Color:       [4]float64{0, 1, 0, 0.5},
		Child:       true,
	})
	require.NoError(t, err)

	root, err := New(Options{}).Import("/models/crate.glb", data, nil)
	require.NoError(t, err)

	assert.Equal(t, "crate", root.Name)
	assert.Equal(t, scene.KindGroup, root.Kind)
	assert.Equal(t, math.Vec3{}, root.Position, "imported model sits at the origin")
	assert.Equal(t, math.Splat(1), root.Scale)
	require.Len(t, root.Children, 1)

	cube := root.Children[0]
	assert.Equal(t, "Cube", cube.Name)
	assert.Equal(t, scene.KindMesh, cube.Kind)
	assert.Equal(t, math.V3(0, 1, 0), cube.Position)
	require.NotNil(t, cube.Mesh)
	assert.Equal(t, 8, cube.Mesh.Geometry.VertexCount())
	assert.Len(t, cube.Mesh.Geometry.Indices, formatstest.CubeTriangles*3)

	// Opaque materials ignore the alpha factor.
	assert.Equal(t, [4]float32{0, 1, 0, 1}, cube.Mesh.Material.Color)

	require.Len(t, cube.Children, 1)
	child := cube.Children[0]
	assert.Equal(t, math.Splat(0.5), child.Scale)
	assert.Same(t, cube.Mesh.Material, child.Mesh.Material, "materials are shared per source index")
	assert.NotEqual(t, cube.Mesh.Geometry.UUID, child.Mesh.Geometry.UUID)

	assert.Equal(t, 2, root.MeshCount())
}

func TestImportTexture(t *testing.T) {
	data, err := formatstest.Cube(formatstest.CubeOptions{Texture: true})
	require.NoError(t, err)

	root, err := New(Options{MaxTextureSize: 1}).Import("tex.glb", data, nil)
	require.NoError(t, err)

	tex := root.Children[0].Mesh.Material.Texture
	require.NotNil(t, tex)
	assert.Equal(t, 1, tex.Image.Bounds().Dx(), "texture is downscaled to the limit")
	assert.NotEmpty(t, tex.UUID)
}

func TestImportRejectsGarbage(t *testing.T) {
	_, err := New(Options{}).Import("notes.txt", []byte("hello"), nil)
	assert.True(t, errors.Is(err, formats.ErrNotGLTF))
}

func TestImportRejectsDanglingIndices(t *testing.T) {
	data := []byte(`{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":0},"indices":9}]}],` +
		`"accessors":[{"componentType":5126,"count":3,"type":"VEC3"}],"nodes":[{"mesh":0}]}`)
	n, err := New(Options{}).Import("broken.gltf", data, nil)
	assert.ErrorIs(t, err, formats.ErrMalformed)
	assert.Nil(t, n)
}

func TestApplyTransformMatrix(t *testing.T) {
	m := math.Compose(math.V3(4, 5, 6), math.V3(0, 0.5, 0), math.V3(2, 2, 2))
	n := scene.NewGroup("n")
	applyTransform(n, formats.GLTFNode{HasMatrix: true, Matrix: [16]float32(m)})

	assert.InDelta(t, 4, n.Position.X, 1e-5)
	assert.InDelta(t, 0.5, n.Rotation.Y, 1e-5)
	assert.InDelta(t, 2, n.Scale.Z, 1e-5)
}

func TestApplyTransformQuat(t *testing.T) {
	// 90° about X.
	s := float32(0.70710677)
	n := scene.NewGroup("n")
	applyTransform(n, formats.GLTFNode{
		Rotation: [4]float32{s, 0, 0, s},
		Scale:    [3]float32{1, 1, 1},
	})
	assert.InDelta(t, 1.5707963, n.Rotation.X, 1e-4)
}

func TestDecodeTexture(t *testing.T) {
	img, err := DecodeTexture(formatstest.SolidPNG(8, 4, color.RGBA{B: 255, A: 255}), 0)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(3, 2))

	_, err = DecodeTexture([]byte("not an image at all"), 0)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 0, 100, 50},
		{100, 50, 200, 100, 50},
		{400, 200, 100, 100, 50},
		{200, 400, 100, 50, 100},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		w, h := fitSize(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d max %d", tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantH, h, "%dx%d max %d", tt.w, tt.h, tt.max)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "robot", displayName("a/b/robot.gltf", ""))
	assert.Equal(t, "Scene", displayName("", "Scene"))
	assert.Equal(t, "Model", displayName("", ""))
}
