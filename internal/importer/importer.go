// Package importer turns decoded glTF models into scene nodes.
package importer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/logger"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/formats"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Options configures an Importer.
type Options struct {
	// MaxTextureSize caps the larger texture edge. 0 keeps the original size.
	MaxTextureSize int
}

// Importer converts model files into scene graph nodes.
type Importer struct {
	opts Options
	log  *zap.Logger
}

// New creates an importer.
func New(opts Options) *Importer {
	return &Importer{opts: opts, log: logger.Named("importer")}
}

// Import decodes a .glb/.gltf payload into a group node named after the file.
// fsys resolves external resources and may be nil.
func (im *Importer) Import(name string, data []byte, fsys fs.FS) (*scene.Node, error) {
	model, err := formats.ParseGLTF(data, fsys)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", name, err)
	}
	for _, w := range model.Warnings {
		im.log.Warn("skipped model content", zap.String("file", name), zap.Error(w))
	}

	b := &builder{
		im:        im,
		model:     model,
		materials: make(map[int]*scene.Material),
		textures:  make(map[int]*scene.Texture),
		visiting:  make(map[int]bool),
	}

	root := scene.NewGroup(displayName(name, model.Name))
	for _, idx := range model.Roots {
		n, err := b.node(idx)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", name, err)
		}
		if n != nil {
			root.Add(n)
		}
	}

	im.log.Info("model imported",
		zap.String("file", name),
		zap.Int("nodes", len(model.Nodes)),
		zap.Int("meshes", root.MeshCount()),
		zap.Int("textures", len(b.textures)))
	return root, nil
}

func displayName(file, sceneName string) string {
	base := filepath.Base(file)
	if base == "." || base == string(filepath.Separator) || base == "" {
		if sceneName != "" {
			return sceneName
		}
		return "Model"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type builder struct {
	im        *Importer
	model     *formats.GLTFModel
	materials map[int]*scene.Material
	textures  map[int]*scene.Texture
	visiting  map[int]bool
}

func (b *builder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.model.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if b.visiting[idx] {
		return nil, fmt.Errorf("node %d is its own ancestor", idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.model.Nodes[idx]
	n := b.meshNode(src)
	if n == nil {
		n = scene.NewGroup(src.Name)
	}
	if n.Name == "" {
		n.Name = fmt.Sprintf("node_%d", idx)
	}
	applyTransform(n, src)

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			n.Add(child)
		}
	}
	return n, nil
}

// meshNode returns a mesh node for single-primitive meshes and a group of
// mesh nodes otherwise. It returns nil for nodes without a mesh.
func (b *builder) meshNode(src formats.GLTFNode) *scene.Node {
	if src.Mesh < 0 || src.Mesh >= len(b.model.Meshes) {
		return nil
	}
	mesh := b.model.Meshes[src.Mesh]
	name := src.Name
	if name == "" {
		name = mesh.Name
	}

	if len(mesh.Primitives) == 1 {
		p := mesh.Primitives[0]
		return scene.NewMesh(name, b.geometry(p), b.material(p.Material))
	}

	group := scene.NewGroup(name)
	for i, p := range mesh.Primitives {
		group.Add(scene.NewMesh(fmt.Sprintf("%s_%d", name, i), b.geometry(p), b.material(p.Material)))
	}
	return group
}

func (b *builder) geometry(p formats.GLTFPrimitive) *scene.Geometry {
	return &scene.Geometry{
		UUID:      uuid.NewString(),
		Positions: p.Positions,
		Normals:   p.Normals,
		UVs:       p.UVs,
		Indices:   p.Indices,
	}
}

func (b *builder) material(idx int) *scene.Material {
	if m, ok := b.materials[idx]; ok {
		return m
	}

	m := &scene.Material{
		UUID:  uuid.NewString(),
		Color: [4]float32{1, 1, 1, 1},
	}
	if idx >= 0 && idx < len(b.model.Materials) {
		src := b.model.Materials[idx]
		m.Name = src.Name
		m.Color = src.BaseColor
		m.DoubleSided = src.DoubleSided
		if !src.Blend {
			m.Color[3] = 1
		}
		m.Texture = b.texture(src.Image)
	}
	b.materials[idx] = m
	return m
}

func (b *builder) texture(idx int) *scene.Texture {
	if idx < 0 || idx >= len(b.model.Images) {
		return nil
	}
	if t, ok := b.textures[idx]; ok {
		return t
	}

	src := b.model.Images[idx]
	var tex *scene.Texture
	if len(src.Data) > 0 {
		img, err := DecodeTexture(src.Data, b.im.opts.MaxTextureSize)
		if err != nil {
			b.im.log.Warn("texture skipped", zap.Int("image", idx), zap.String("name", src.Name), zap.Error(err))
		} else {
			tex = &scene.Texture{UUID: uuid.NewString(), Image: img}
		}
	}
	b.textures[idx] = tex
	return tex
}

func applyTransform(n *scene.Node, src formats.GLTFNode) {
	if src.HasMatrix {
		n.SetMatrix(math.Mat4(src.Matrix))
		return
	}
	n.Position = math.V3(src.Translation[0], src.Translation[1], src.Translation[2])
	q := math.Quat{X: src.Rotation[0], Y: src.Rotation[1], Z: src.Rotation[2], W: src.Rotation[3]}
	n.Rotation = q.Normalize().Euler()
	n.Scale = math.V3(src.Scale[0], src.Scale[1], src.Scale[2])
}
