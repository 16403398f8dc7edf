// Package persist converts scene nodes to and from object JSON documents.
package persist

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/importer"
	"github.com/Faultbox/scenedit/internal/logger"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/formats"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Save writes every non-fixed root node of s as a JSON array.
func Save(w io.Writer, s *scene.Scene) (int, error) {
	nodes := s.Editable()
	docs, err := EncodeNodes(nodes)
	if err != nil {
		return 0, err
	}
	data, err := formats.MarshalObjectDocuments(docs)
	if err != nil {
		return 0, fmt.Errorf("encoding scene: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("writing scene: %w", err)
	}
	return len(nodes), nil
}

// Load decodes every document in r. Nothing is returned unless all succeed.
func Load(r io.Reader) ([]*scene.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return Decode(data)
}

// Decode parses a JSON array of object documents into nodes.
func Decode(data []byte) ([]*scene.Node, error) {
	docs, err := formats.ParseObjectDocuments(data)
	if err != nil {
		return nil, err
	}
	nodes := make([]*scene.Node, 0, len(docs))
	for i, doc := range docs {
		n, err := DecodeDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// EncodeNodes encodes one document per node. Fixed nodes are skipped.
func EncodeNodes(nodes []*scene.Node) ([]*formats.ObjectDocument, error) {
	docs := make([]*formats.ObjectDocument, 0, len(nodes))
	for _, n := range nodes {
		if n.Fixed {
			continue
		}
		doc, err := EncodeNode(n)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", n.Name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// EncodeNode serializes n and its subtree into a standalone document.
func EncodeNode(n *scene.Node) (*formats.ObjectDocument, error) {
	e := &encoder{
		doc:  formats.NewObjectDocument(),
		seen: make(map[string]bool),
	}
	obj, err := e.node(n)
	if err != nil {
		return nil, err
	}
	e.doc.Object = *obj
	return e.doc, nil
}

type encoder struct {
	doc  *formats.ObjectDocument
	seen map[string]bool
}

func (e *encoder) node(n *scene.Node) (*formats.ObjectNode, error) {
	obj := &formats.ObjectNode{
		UUID:     n.UUID,
		Type:     formats.ObjectTypeGroup,
		Name:     n.Name,
		Matrix:   [16]float32(n.LocalMatrix()),
		Position: ptr(n.Position.Array()),
		Rotation: &formats.Euler{X: n.Rotation.X, Y: n.Rotation.Y, Z: n.Rotation.Z, Order: formats.EulerOrderXYZ},
		Scale:    ptr(n.Scale.Array()),
	}

	if n.Mesh != nil && n.Mesh.Geometry != nil {
		obj.Type = formats.ObjectTypeMesh
		obj.Geometry = e.geometry(n.Mesh.Geometry)
		if n.Mesh.Material != nil {
			id, err := e.material(n.Mesh.Material)
			if err != nil {
				return nil, err
			}
			obj.Material = id
		}
	}

	for _, c := range n.Children {
		if c.Fixed {
			continue
		}
		child, err := e.node(c)
		if err != nil {
			return nil, err
		}
		obj.Children = append(obj.Children, child)
	}
	return obj, nil
}

func (e *encoder) geometry(g *scene.Geometry) string {
	id := orNew(g.UUID)
	if e.seen[id] {
		return id
	}
	e.seen[id] = true

	attrs := map[string]formats.BufferAttribute{
		"position": {ItemSize: 3, Type: formats.ArrayTypeFloat32, Array: g.Positions},
	}
	if len(g.Normals) > 0 {
		attrs["normal"] = formats.BufferAttribute{ItemSize: 3, Type: formats.ArrayTypeFloat32, Array: g.Normals}
	}
	if len(g.UVs) > 0 {
		attrs["uv"] = formats.BufferAttribute{ItemSize: 2, Type: formats.ArrayTypeFloat32, Array: g.UVs}
	}

	data := formats.GeometryData{Attributes: attrs}
	if len(g.Indices) > 0 {
		data.Index = &formats.IndexAttribute{Type: formats.ArrayTypeUint32, Array: g.Indices}
	}
	e.doc.Geometries = append(e.doc.Geometries, formats.ObjectGeometry{
		UUID: id,
		Type: formats.GeometryTypeBuffer,
		Data: data,
	})
	return id
}

func (e *encoder) material(m *scene.Material) (string, error) {
	id := orNew(m.UUID)
	if e.seen[id] {
		return id, nil
	}
	e.seen[id] = true

	om := formats.ObjectMaterial{
		UUID:        id,
		Type:        formats.MaterialTypeStandard,
		Name:        m.Name,
		Color:       linearToHex(m.Color),
		Roughness:   1,
		Opacity:     float64(m.Color[3]),
		Transparent: m.Transparent(),
		Side:        formats.SideFront,
	}
	if m.DoubleSided {
		om.Side = formats.SideDouble
	}

	if m.Texture != nil && m.Texture.Image != nil {
		texID := orNew(m.Texture.UUID)
		if !e.seen[texID] {
			e.seen[texID] = true
			var buf bytes.Buffer
			if err := png.Encode(&buf, m.Texture.Image); err != nil {
				return "", fmt.Errorf("encoding texture: %w", err)
			}
			imgID := uuid.NewString()
			e.doc.Images = append(e.doc.Images, formats.ObjectImage{
				UUID: imgID,
				URL:  formats.EncodeDataURI("image/png", buf.Bytes()),
			})
			e.doc.Textures = append(e.doc.Textures, formats.ObjectTexture{UUID: texID, Image: imgID})
		}
		om.Map = texID
	}

	e.doc.Materials = append(e.doc.Materials, om)
	return id, nil
}

// DecodeDocument rebuilds the node tree of one document.
func DecodeDocument(doc *formats.ObjectDocument) (*scene.Node, error) {
	d := &decoder{
		doc:        doc,
		geometries: make(map[string]*scene.Geometry),
		materials:  make(map[string]*scene.Material),
		textures:   make(map[string]*scene.Texture),
		log:        logger.Named("persist"),
	}
	return d.node(&doc.Object)
}

type decoder struct {
	doc        *formats.ObjectDocument
	geometries map[string]*scene.Geometry
	materials  map[string]*scene.Material
	textures   map[string]*scene.Texture
	log        *zap.Logger
}

func (d *decoder) node(obj *formats.ObjectNode) (*scene.Node, error) {
	var n *scene.Node
	if obj.IsMesh() {
		geom, err := d.geometry(obj.Geometry)
		if err != nil {
			return nil, err
		}
		mat, err := d.material(obj.Material)
		if err != nil {
			return nil, err
		}
		n = scene.NewMesh(obj.Name, geom, mat)
	} else {
		if !obj.IsGroup() {
			d.log.Warn("loading object as a group",
				zap.String("uuid", obj.UUID), zap.String("type", obj.Type))
		}
		n = scene.NewGroup(obj.Name)
	}
	if obj.UUID != "" {
		n.UUID = obj.UUID
	}

	// Explicit components win over the matrix.
	p, r, sc := math.Vec3{}, math.Vec3{}, math.Splat(1)
	if obj.Matrix != ([16]float32{}) {
		p, r, sc = math.Mat4(obj.Matrix).Decompose()
	}
	if obj.Position != nil {
		p = vec(*obj.Position)
	}
	// Other rotation orders fall back to the matrix.
	if obj.Rotation != nil && obj.Rotation.Order == formats.EulerOrderXYZ {
		r = math.V3(obj.Rotation.X, obj.Rotation.Y, obj.Rotation.Z)
	}
	if obj.Scale != nil {
		sc = vec(*obj.Scale)
	}
	n.Position, n.Rotation, n.Scale = p, r, sc
	if !n.Position.IsFinite() || !n.Rotation.IsFinite() || !n.Scale.IsFinite() {
		return nil, fmt.Errorf("%w: object %s has a non-finite transform", formats.ErrInvalidDocument, obj.UUID)
	}

	for _, c := range obj.Children {
		child, err := d.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func (d *decoder) geometry(id string) (*scene.Geometry, error) {
	if g, ok := d.geometries[id]; ok {
		return g, nil
	}
	src := d.doc.Geometry(id)
	if src == nil {
		return nil, fmt.Errorf("%w: missing geometry %q", formats.ErrInvalidDocument, id)
	}

	attrs := src.Data.Attributes
	g := &scene.Geometry{
		UUID:      id,
		Positions: attrs["position"].Array,
	}
	count := len(g.Positions) / 3
	if a, ok := attrs["normal"]; ok && a.ItemSize == 3 && len(a.Array) == count*3 {
		g.Normals = a.Array
	}
	if a, ok := attrs["uv"]; ok && a.ItemSize == 2 && len(a.Array) == count*2 {
		g.UVs = a.Array
	}
	if src.Data.Index != nil {
		g.Indices = src.Data.Index.Array
	} else {
		g.Indices = make([]uint32, count-count%3)
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}
	if g.Normals == nil {
		g.Normals = formats.ComputeNormals(g.Positions, g.Indices)
	}

	d.geometries[id] = g
	return g, nil
}

func (d *decoder) material(id string) (*scene.Material, error) {
	if id == "" {
		return &scene.Material{UUID: uuid.NewString(), Color: [4]float32{1, 1, 1, 1}}, nil
	}
	if m, ok := d.materials[id]; ok {
		return m, nil
	}
	src := d.doc.Material(id)
	if src == nil {
		return nil, fmt.Errorf("%w: missing material %q", formats.ErrInvalidDocument, id)
	}

	m := &scene.Material{
		UUID:        id,
		Name:        src.Name,
		Color:       hexToLinear(src.Color),
		DoubleSided: src.Side == formats.SideDouble,
	}
	if src.Transparent {
		m.Color[3] = float32(src.Opacity)
	}
	if src.Map != "" {
		tex, err := d.texture(src.Map)
		if err != nil {
			return nil, err
		}
		m.Texture = tex
	}

	d.materials[id] = m
	return m, nil
}

func (d *decoder) texture(id string) (*scene.Texture, error) {
	if t, ok := d.textures[id]; ok {
		return t, nil
	}
	src := d.doc.Texture(id)
	if src == nil {
		return nil, fmt.Errorf("%w: missing texture %q", formats.ErrInvalidDocument, id)
	}
	img := d.doc.Image(src.Image)
	if img == nil {
		return nil, fmt.Errorf("%w: missing image %q", formats.ErrInvalidDocument, src.Image)
	}

	_, data, err := formats.DecodeDataURI(img.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", formats.ErrInvalidDocument, img.UUID, err)
	}
	rgba, err := importer.DecodeTexture(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", formats.ErrInvalidDocument, img.UUID, err)
	}

	t := &scene.Texture{UUID: id, Image: rgba}
	d.textures[id] = t
	return t, nil
}

// linearToHex converts a linear colour to the sRGB 0xRRGGBB the format stores.
func linearToHex(c [4]float32) uint32 {
	r, g, b := colorful.LinearRgb(float64(c[0]), float64(c[1]), float64(c[2])).Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// hexToLinear converts a stored sRGB colour to linear RGBA with alpha 1.
func hexToLinear(hex uint32) [4]float32 {
	c := colorful.Color{
		R: float64((hex>>16)&0xff) / 255,
		G: float64((hex>>8)&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
	r, g, b := c.LinearRgb()
	return [4]float32{float32(r), float32(g), float32(b), 1}
}

func orNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func ptr(v [3]float32) *[3]float32 {
	return &v
}

func vec(v [3]float32) math.Vec3 {
	return math.V3(v[0], v[1], v[2])
}
