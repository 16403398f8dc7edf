package formats

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// glTF format errors.
var (
	ErrNotGLTF              = errors.New("not a glTF or GLB file")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive mode")
	ErrNoGeometry           = errors.New("glTF file contains no triangle geometry")
	ErrMalformed            = errors.New("malformed glTF")
)

// glbMagic is "glTF" as the first four bytes of a binary container.
var glbMagic = []byte("glTF")

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// GLTFModel is a glTF document flattened into plain arrays.
type GLTFModel struct {
	Name      string
	Roots     []int // node indices of the default scene
	Nodes     []GLTFNode
	Meshes    []GLTFMesh
	Materials []GLTFMaterial
	Images    []GLTFImage

	// Warnings lists content that was skipped while decoding.
	Warnings []error
}

// GLTFNode is one node of the hierarchy.
type GLTFNode struct {
	Name        string
	Mesh        int // -1 when the node has no mesh
	Children    []int
	HasMatrix   bool
	Matrix      [16]float32 // column-major, valid when HasMatrix
	Translation [3]float32
	Rotation    [4]float32 // quaternion xyzw
	Scale       [3]float32
}

// GLTFMesh groups primitives that share a node.
type GLTFMesh struct {
	Name       string
	Primitives []GLTFPrimitive
}

// GLTFPrimitive is an indexed triangle list.
type GLTFPrimitive struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
	Material  int // -1 for the default material
}

// GLTFMaterial holds the metallic-roughness base colour.
type GLTFMaterial struct {
	Name        string
	BaseColor   [4]float32 // linear RGBA
	Image       int        // base colour image index, -1 if untextured
	DoubleSided bool
	Blend       bool
}

// GLTFImage is an encoded image payload.
type GLTFImage struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsGLTF reports whether data looks like a GLB container or a glTF JSON document.
func IsGLTF(data []byte) bool {
	if bytes.HasPrefix(data, glbMagic) {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// ParseGLTF decodes a .glb or .gltf payload. fsys resolves external buffers and
// images of .gltf files and may be nil for self-contained files.
func ParseGLTF(data []byte, fsys fs.FS) (*GLTFModel, error) {
	if !IsGLTF(data) {
		return nil, ErrNotGLTF
	}

	var dec *gltf.Decoder
	if fsys != nil {
		dec = gltf.NewDecoderFS(bytes.NewReader(data), fsys)
	} else {
		dec = gltf.NewDecoder(bytes.NewReader(data))
	}
	doc, err := decode(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	return convertDocument(doc, fsys)
}

// decode runs the glTF decoder. It dereferences null buffers and images
// before anything can be validated, so a panic there is reported as a
// malformed file.
func decode(dec *gltf.Decoder) (doc *gltf.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, malformed("%v", r)
		}
	}()
	doc = new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseGLTFFile loads a model from disk, resolving resources next to it.
func ParseGLTFFile(path string) (*GLTFModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	model, err := ParseGLTF(data, os.DirFS(filepath.Dir(path)))
	if err != nil {
		return nil, err
	}
	if model.Name == "" {
		model.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return model, nil
}

func convertDocument(doc *gltf.Document, fsys fs.FS) (*GLTFModel, error) {
	m := &GLTFModel{}

	for i, img := range doc.Images {
		gi, err := readImage(doc, img, fsys)
		if err != nil {
			m.Warnings = append(m.Warnings, fmt.Errorf("image %d: %w", i, err))
		}
		m.Images = append(m.Images, gi)
	}

	for _, mat := range doc.Materials {
		m.Materials = append(m.Materials, convertMaterial(doc, mat))
	}

	triangles := 0
	for mi, mesh := range doc.Meshes {
		gm := GLTFMesh{Name: mesh.Name}
		for pi, prim := range mesh.Primitives {
			gp, err := convertPrimitive(doc, prim)
			if err != nil {
				m.Warnings = append(m.Warnings, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err))
				continue
			}
			triangles += len(gp.Indices) / 3
			gm.Primitives = append(gm.Primitives, gp)
		}
		m.Meshes = append(m.Meshes, gm)
	}
	if triangles == 0 {
		return nil, ErrNoGeometry
	}

	for _, node := range doc.Nodes {
		m.Nodes = append(m.Nodes, convertNode(node))
	}

	m.Roots = sceneRoots(doc)
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		m.Name = doc.Scenes[*doc.Scene].Name
	}
	return m, nil
}

func convertNode(node *gltf.Node) GLTFNode {
	gn := GLTFNode{Name: node.Name, Mesh: -1, Children: append([]int(nil), node.Children...)}
	if node.Mesh != nil {
		gn.Mesh = *node.Mesh
	}

	mat := node.MatrixOrDefault()
	if mat != identityMatrix {
		gn.HasMatrix = true
		for i, v := range mat {
			gn.Matrix[i] = float32(v)
		}
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	gn.Translation = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
	gn.Rotation = [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])}
	gn.Scale = [3]float32{float32(s[0]), float32(s[1]), float32(s[2])}
	return gn
}

// sceneRoots returns the root nodes of the default scene, falling back to
// every parentless node when the file declares no scene.
func sceneRoots(doc *gltf.Document) []int {
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < len(doc.Scenes) && len(doc.Scenes[idx].Nodes) > 0 {
		return append([]int(nil), doc.Scenes[idx].Nodes...)
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if inRange(c, len(hasParent)) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

func convertMaterial(doc *gltf.Document, mat *gltf.Material) GLTFMaterial {
	gm := GLTFMaterial{
		Name:        mat.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		Image:       -1,
		DoubleSided: mat.DoubleSided,
		Blend:       mat.AlphaMode == gltf.AlphaBlend,
	}
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return gm
	}
	if f := pbr.BaseColorFactor; f != nil {
		gm.BaseColor = [4]float32{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
	}
	if pbr.BaseColorTexture != nil {
		ti := pbr.BaseColorTexture.Index
		if inRange(ti, len(doc.Textures)) && doc.Textures[ti].Source != nil {
			gm.Image = *doc.Textures[ti].Source
		}
	}
	return gm
}

func convertPrimitive(doc *gltf.Document, prim *gltf.Primitive) (GLTFPrimitive, error) {
	gp := GLTFPrimitive{Material: -1}
	if prim.Material != nil {
		gp.Material = *prim.Material
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return gp, errors.New("primitive has no POSITION attribute")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return gp, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return gp, fmt.Errorf("reading positions: %w", err)
	}
	gp.Positions = flatten3(positions)

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		acr, err := accessor(doc, idx)
		if err != nil {
			return gp, fmt.Errorf("normals: %w", err)
		}
		normals, err := modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return gp, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			gp.Normals = flatten3(normals)
		}
	}

	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		acr, err := accessor(doc, idx)
		if err != nil {
			return gp, fmt.Errorf("uvs: %w", err)
		}
		uvs, err := modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return gp, fmt.Errorf("reading uvs: %w", err)
		}
		if len(uvs) == len(positions) {
			gp.UVs = flatten2(uvs)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := accessor(doc, *prim.Indices)
		if err != nil {
			return gp, fmt.Errorf("indices: %w", err)
		}
		indices, err = modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return gp, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, ix := range indices {
		if int(ix) >= len(positions) {
			return gp, fmt.Errorf("index %d out of range (%d vertices)", ix, len(positions))
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		gp.Indices = indices[:len(indices)/3*3]
	case gltf.PrimitiveTriangleStrip:
		gp.Indices = stripToList(indices)
	case gltf.PrimitiveTriangleFan:
		gp.Indices = fanToList(indices)
	default:
		return gp, fmt.Errorf("%w: %v", ErrUnsupportedPrimitive, prim.Mode)
	}

	if gp.Normals == nil {
		gp.Normals = ComputeNormals(gp.Positions, gp.Indices)
	}
	return gp, nil
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// validate checks every cross reference the converter follows. Byte ranges
// are checked per accessor when a primitive is read.
func validate(doc *gltf.Document) error {
	for i, b := range doc.Buffers {
		if b == nil {
			return malformed("buffer %d is null", i)
		}
	}
	for i, bv := range doc.BufferViews {
		if bv == nil {
			return malformed("buffer view %d is null", i)
		}
		if !inRange(bv.Buffer, len(doc.Buffers)) {
			return malformed("buffer view %d: buffer %d out of range", i, bv.Buffer)
		}
		if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteStride < 0 {
			return malformed("buffer view %d: negative offset, length or stride", i)
		}
	}
	for i, acr := range doc.Accessors {
		if acr == nil {
			return malformed("accessor %d is null", i)
		}
		if acr.BufferView != nil && !inRange(*acr.BufferView, len(doc.BufferViews)) {
			return malformed("accessor %d: buffer view %d out of range", i, *acr.BufferView)
		}
	}
	for i, img := range doc.Images {
		if img == nil {
			return malformed("image %d is null", i)
		}
		if img.BufferView != nil && !inRange(*img.BufferView, len(doc.BufferViews)) {
			return malformed("image %d: buffer view %d out of range", i, *img.BufferView)
		}
	}
	for i, tex := range doc.Textures {
		if tex == nil {
			return malformed("texture %d is null", i)
		}
		if tex.Source != nil && !inRange(*tex.Source, len(doc.Images)) {
			return malformed("texture %d: image %d out of range", i, *tex.Source)
		}
	}
	for i, mat := range doc.Materials {
		if mat == nil {
			return malformed("material %d is null", i)
		}
	}
	for mi, mesh := range doc.Meshes {
		if mesh == nil {
			return malformed("mesh %d is null", mi)
		}
		for pi, prim := range mesh.Primitives {
			if prim == nil {
				return malformed("mesh %d primitive %d is null", mi, pi)
			}
			for name, idx := range prim.Attributes {
				if !inRange(idx, len(doc.Accessors)) {
					return malformed("mesh %d primitive %d: %s accessor %d out of range", mi, pi, name, idx)
				}
			}
			if prim.Indices != nil && !inRange(*prim.Indices, len(doc.Accessors)) {
				return malformed("mesh %d primitive %d: indices accessor %d out of range", mi, pi, *prim.Indices)
			}
			if prim.Material != nil && !inRange(*prim.Material, len(doc.Materials)) {
				return malformed("mesh %d primitive %d: material %d out of range", mi, pi, *prim.Material)
			}
		}
	}
	for i, node := range doc.Nodes {
		if node == nil {
			return malformed("node %d is null", i)
		}
		if node.Mesh != nil && !inRange(*node.Mesh, len(doc.Meshes)) {
			return malformed("node %d: mesh %d out of range", i, *node.Mesh)
		}
		for _, c := range node.Children {
			if !inRange(c, len(doc.Nodes)) {
				return malformed("node %d: child %d out of range", i, c)
			}
		}
	}
	for i, sc := range doc.Scenes {
		if sc == nil {
			return malformed("scene %d is null", i)
		}
		for _, n := range sc.Nodes {
			if !inRange(n, len(doc.Nodes)) {
				return malformed("scene %d: node %d out of range", i, n)
			}
		}
	}
	if doc.Scene != nil && *doc.Scene != 0 && !inRange(*doc.Scene, len(doc.Scenes)) {
		return malformed("default scene %d out of range", *doc.Scene)
	}
	return nil
}

// accessor returns accessor idx after checking that its elements fit inside
// its buffer view. Sparse and zero-filled accessors are not supported.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	acr := doc.Accessors[idx]
	if acr.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", idx)
	}
	if acr.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	size := gltf.SizeOfElement(acr.ComponentType, acr.Type)
	if size == 0 || acr.Count < 0 || acr.ByteOffset < 0 {
		return nil, fmt.Errorf("accessor %d: invalid layout", idx)
	}
	bv := doc.BufferViews[*acr.BufferView]
	stride := bv.ByteStride
	if stride == 0 {
		stride = size
	}
	end := acr.ByteOffset
	if acr.Count > 0 {
		end += (acr.Count-1)*stride + size
	}
	if end > bv.ByteLength {
		return nil, fmt.Errorf("accessor %d: needs %d bytes, buffer view has %d", idx, end, bv.ByteLength)
	}
	return acr, nil
}

// stripToList converts a triangle strip to a list, keeping winding consistent.
func stripToList(strip []uint32) []uint32 {
	if len(strip) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(strip)-2)*3)
	for i := 0; i+2 < len(strip); i++ {
		if i%2 == 0 {
			out = append(out, strip[i], strip[i+1], strip[i+2])
		} else {
			out = append(out, strip[i+1], strip[i], strip[i+2])
		}
	}
	return out
}

// fanToList converts a triangle fan to a list.
func fanToList(fan []uint32) []uint32 {
	if len(fan) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(fan)-2)*3)
	for i := 1; i+1 < len(fan); i++ {
		out = append(out, fan[0], fan[i], fan[i+1])
	}
	return out
}

// ComputeNormals returns area-weighted vertex normals for an indexed triangle list.
func ComputeNormals(positions []float32, indices []uint32) []float32 {
	normals := make([]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i]*3, indices[i+1]*3, indices[i+2]*3
		e1 := [3]float32{positions[b] - positions[a], positions[b+1] - positions[a+1], positions[b+2] - positions[a+2]}
		e2 := [3]float32{positions[c] - positions[a], positions[c+1] - positions[a+1], positions[c+2] - positions[a+2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, v := range [3]uint32{a, b, c} {
			normals[v] += n[0]
			normals[v+1] += n[1]
			normals[v+2] += n[2]
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		x, y, z := normals[i], normals[i+1], normals[i+2]
		l := x*x + y*y + z*z
		if l == 0 {
			normals[i+1] = 1
			continue
		}
		inv := 1 / math32.Sqrt(l)
		normals[i], normals[i+1], normals[i+2] = x*inv, y*inv, z*inv
	}
	return normals
}

func readImage(doc *gltf.Document, img *gltf.Image, fsys fs.FS) (GLTFImage, error) {
	gi := GLTFImage{Name: img.Name, MimeType: img.MimeType}

	switch {
	case img.BufferView != nil:
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return gi, fmt.Errorf("reading buffer view %d: %w", *img.BufferView, err)
		}
		gi.Data = data
	case strings.HasPrefix(img.URI, "data:"):
		mime, data, err := DecodeDataURI(img.URI)
		if err != nil {
			return gi, err
		}
		if gi.MimeType == "" {
			gi.MimeType = mime
		}
		gi.Data = data
	case img.URI != "":
		if fsys == nil {
			return gi, fmt.Errorf("external image %q needs a file system", img.URI)
		}
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			name = img.URI
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return gi, fmt.Errorf("reading image %q: %w", name, err)
		}
		gi.Data = data
		if gi.Name == "" {
			gi.Name = name
		}
	default:
		return gi, errors.New("image has neither uri nor bufferView")
	}
	return gi, nil
}

// DecodeDataURI splits a data URI into its MIME type and payload.
func DecodeDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "", nil, errors.New("malformed data uri")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		data, err := url.PathUnescape(payload)
		return mime, []byte(data), err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return mime, nil, fmt.Errorf("decoding data uri: %w", err)
	}
	return mime, data, nil
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, p := range v {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func flatten2(v [][2]float32) []float32 {
	out := make([]float32, 0, len(v)*2)
	for _, p := range v {
		out = append(out, p[0], p[1])
	}
	return out
}

// EncodeDataURI builds a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
