// Package formatstest builds small in-memory glTF fixtures for tests.
package formatstest

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// CubeOptions controls the generated cube model.
type CubeOptions struct {
	Name        string
	Translation [3]float64
	Color       [4]float64 // base colour factor, zero means opaque white
	Texture     bool       // embed a 2x2 PNG as base colour texture
	Child       bool       // attach a second, smaller cube as a child node
	Text        bool       // write .gltf JSON instead of .glb
}

var cubePositions = [][3]float32{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

var cubeUVs = [][2]float32{
	{0, 0}, {1, 0}, {1, 1}, {0, 1},
	{0, 0}, {1, 0}, {1, 1}, {0, 1},
}

var cubeIndices = []uint16{
	0, 2, 1, 0, 3, 2, // back
	4, 5, 6, 4, 6, 7, // front
	0, 1, 5, 0, 5, 4, // bottom
	3, 7, 6, 3, 6, 2, // top
	0, 4, 7, 0, 7, 3, // left
	1, 2, 6, 1, 6, 5, // right
}

// CubeTriangles is the triangle count of one generated cube.
const CubeTriangles = 12

// Cube encodes a unit cube model.
func Cube(opts CubeOptions) ([]byte, error) {
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, cubePositions)
	uv := modeler.WriteTextureCoord(doc, cubeUVs)
	idx := modeler.WriteIndices(doc, cubeIndices)

	factor := opts.Color
	if factor == [4]float64{} {
		factor = [4]float64{1, 1, 1, 1}
	}
	mat := &gltf.Material{
		Name: "CubeMaterial",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &factor,
		},
	}
	if opts.Texture {
		doc.Images = append(doc.Images, &gltf.Image{
			Name:     "checker",
			MimeType: "image/png",
			URI:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(SolidPNG(2, 2, color.RGBA{R: 255, A: 255})),
		})
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(0)})
		mat.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: 0}
	}
	doc.Materials = append(doc.Materials, mat)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Cube",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos, "TEXCOORD_0": uv},
			Material:   gltf.Index(0),
		}},
	})

	name := opts.Name
	if name == "" {
		name = "Cube"
	}
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        name,
		Mesh:        gltf.Index(0),
		Translation: opts.Translation,
	})
	if opts.Child {
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        name + "Child",
			Mesh:        gltf.Index(0),
			Translation: [3]float64{0, 2, 0},
			Scale:       [3]float64{0.5, 0.5, 0.5},
		})
		doc.Nodes[0].Children = []int{1}
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if opts.Text {
		b := doc.Buffers[0]
		b.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.Data)
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = !opts.Text
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SolidPNG encodes a w×h image filled with c.
func SolidPNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
