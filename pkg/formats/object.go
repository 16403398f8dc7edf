package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidDocument is returned when an object document is structurally broken.
var ErrInvalidDocument = errors.New("invalid object document")

// Object document constants.
const (
	ObjectFormatVersion = 4.6
	ObjectFormatType    = "Object"
	ObjectGenerator     = "Object3D.toJSON"

	ObjectTypeGroup       = "Group"
	ObjectTypeMesh        = "Mesh"
	ObjectTypeSkinnedMesh = "SkinnedMesh"

	GeometryTypeBuffer   = "BufferGeometry"
	MaterialTypeStandard = "MeshStandardMaterial"

	ArrayTypeFloat32 = "Float32Array"
	ArrayTypeUint16  = "Uint16Array"
	ArrayTypeUint32  = "Uint32Array"

	EulerOrderXYZ = "XYZ"
)

// Material side values.
const (
	SideFront  = 0
	SideBack   = 1
	SideDouble = 2
)

// ObjectDocument is one serialized object tree with its shared resources.
type ObjectDocument struct {
	Metadata   ObjectMetadata   `json:"metadata"`
	Geometries []ObjectGeometry `json:"geometries,omitempty"`
	Materials  []ObjectMaterial `json:"materials,omitempty"`
	Textures   []ObjectTexture  `json:"textures,omitempty"`
	Images     []ObjectImage    `json:"images,omitempty"`
	Object     ObjectNode       `json:"object"`
}

// ObjectMetadata identifies the format.
type ObjectMetadata struct {
	Version   float64 `json:"version"`
	Type      string  `json:"type"`
	Generator string  `json:"generator"`
}

// ObjectGeometry is a buffer geometry.
type ObjectGeometry struct {
	UUID string       `json:"uuid"`
	Type string       `json:"type"`
	Data GeometryData `json:"data"`
}

// GeometryData holds named vertex attributes and an optional index.
type GeometryData struct {
	Attributes map[string]BufferAttribute `json:"attributes"`
	Index      *IndexAttribute            `json:"index,omitempty"`
}

// BufferAttribute is a typed float array with a per-vertex item size.
type BufferAttribute struct {
	ItemSize   int       `json:"itemSize"`
	Type       string    `json:"type"`
	Array      []float32 `json:"array"`
	Normalized bool      `json:"normalized"`
}

// IndexAttribute is the triangle index array.
type IndexAttribute struct {
	Type  string   `json:"type"`
	Array []uint32 `json:"array"`
}

// ObjectMaterial is a standard PBR material. Color is 0xRRGGBB in sRGB.
type ObjectMaterial struct {
	UUID        string  `json:"uuid"`
	Type        string  `json:"type"`
	Name        string  `json:"name,omitempty"`
	Color       uint32  `json:"color"`
	Roughness   float64 `json:"roughness"`
	Metalness   float64 `json:"metalness"`
	Opacity     float64 `json:"opacity"`
	Transparent bool    `json:"transparent"`
	Side        int     `json:"side"`
	Map         string  `json:"map,omitempty"`
}

// ObjectTexture references an image.
type ObjectTexture struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image"`
}

// ObjectImage is an embedded image, usually a PNG data URL.
type ObjectImage struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

// ObjectNode is an element of the serialized tree. Position, Rotation and
// Scale are optional; when absent the transform is taken from Matrix.
type ObjectNode struct {
	UUID     string        `json:"uuid"`
	Type     string        `json:"type"`
	Name     string        `json:"name,omitempty"`
	Matrix   [16]float32   `json:"matrix"`
	Position *[3]float32   `json:"position,omitempty"`
	Rotation *Euler        `json:"rotation,omitempty"`
	Scale    *[3]float32   `json:"scale,omitempty"`
	Geometry string        `json:"geometry,omitempty"`
	Material string        `json:"material,omitempty"`
	Children []*ObjectNode `json:"children,omitempty"`
}

// IsMesh reports whether the node carries geometry.
func (n *ObjectNode) IsMesh() bool {
	return n.Type == ObjectTypeMesh || n.Type == ObjectTypeSkinnedMesh
}

// IsGroup reports whether the node is a plain transform container.
// Other types (bones, cameras, lights) are loaded as groups too.
func (n *ObjectNode) IsGroup() bool {
	switch n.Type {
	case ObjectTypeGroup, "Object3D", "Scene":
		return true
	}
	return false
}

// Euler is a rotation serialized as [x, y, z, "order"].
type Euler struct {
	X, Y, Z float32
	Order   string
}

// MarshalJSON writes the four-element array form.
func (e Euler) MarshalJSON() ([]byte, error) {
	order := e.Order
	if order == "" {
		order = EulerOrderXYZ
	}
	return json.Marshal([]any{e.X, e.Y, e.Z, order})
}

// UnmarshalJSON accepts [x, y, z] or [x, y, z, "order"].
func (e *Euler) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 3 || len(raw) > 4 {
		return fmt.Errorf("rotation needs 3 or 4 elements, got %d", len(raw))
	}
	for i, dst := range []*float32{&e.X, &e.Y, &e.Z} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("rotation[%d]: %w", i, err)
		}
	}
	e.Order = EulerOrderXYZ
	if len(raw) == 4 {
		if err := json.Unmarshal(raw[3], &e.Order); err != nil {
			return fmt.Errorf("rotation order: %w", err)
		}
	}
	return nil
}

// NewObjectDocument returns a document with the metadata filled in.
func NewObjectDocument() *ObjectDocument {
	return &ObjectDocument{
		Metadata: ObjectMetadata{
			Version:   ObjectFormatVersion,
			Type:      ObjectFormatType,
			Generator: ObjectGenerator,
		},
	}
}

// Geometry looks up a geometry by UUID.
func (d *ObjectDocument) Geometry(id string) *ObjectGeometry {
	for i := range d.Geometries {
		if d.Geometries[i].UUID == id {
			return &d.Geometries[i]
		}
	}
	return nil
}

// Material looks up a material by UUID.
func (d *ObjectDocument) Material(id string) *ObjectMaterial {
	for i := range d.Materials {
		if d.Materials[i].UUID == id {
			return &d.Materials[i]
		}
	}
	return nil
}

// Texture looks up a texture by UUID.
func (d *ObjectDocument) Texture(id string) *ObjectTexture {
	for i := range d.Textures {
		if d.Textures[i].UUID == id {
			return &d.Textures[i]
		}
	}
	return nil
}

// Image looks up an image by UUID.
func (d *ObjectDocument) Image(id string) *ObjectImage {
	for i := range d.Images {
		if d.Images[i].UUID == id {
			return &d.Images[i]
		}
	}
	return nil
}

// Validate checks that the tree is typed and every reference resolves.
func (d *ObjectDocument) Validate() error {
	if d.Metadata.Type != "" && d.Metadata.Type != ObjectFormatType {
		return fmt.Errorf("%w: metadata type %q", ErrInvalidDocument, d.Metadata.Type)
	}
	for _, g := range d.Geometries {
		pos, ok := g.Data.Attributes["position"]
		if !ok {
			return fmt.Errorf("%w: geometry %s has no position attribute", ErrInvalidDocument, g.UUID)
		}
		if pos.ItemSize != 3 || len(pos.Array)%3 != 0 {
			return fmt.Errorf("%w: geometry %s position item size %d", ErrInvalidDocument, g.UUID, pos.ItemSize)
		}
		if g.Data.Index != nil {
			count := uint32(len(pos.Array) / 3)
			for _, ix := range g.Data.Index.Array {
				if ix >= count {
					return fmt.Errorf("%w: geometry %s index %d out of range", ErrInvalidDocument, g.UUID, ix)
				}
			}
		}
	}
	for _, m := range d.Materials {
		if m.Map != "" && d.Texture(m.Map) == nil {
			return fmt.Errorf("%w: material %s references missing texture %s", ErrInvalidDocument, m.UUID, m.Map)
		}
	}
	for _, t := range d.Textures {
		if d.Image(t.Image) == nil {
			return fmt.Errorf("%w: texture %s references missing image %s", ErrInvalidDocument, t.UUID, t.Image)
		}
	}
	return d.validateNode(&d.Object)
}

func (d *ObjectDocument) validateNode(n *ObjectNode) error {
	switch {
	case n.Type == "":
		return fmt.Errorf("%w: object %s has no type", ErrInvalidDocument, n.UUID)
	case n.IsMesh():
		if d.Geometry(n.Geometry) == nil {
			return fmt.Errorf("%w: mesh %s references missing geometry %q", ErrInvalidDocument, n.UUID, n.Geometry)
		}
		if n.Material != "" && d.Material(n.Material) == nil {
			return fmt.Errorf("%w: mesh %s references missing material %q", ErrInvalidDocument, n.UUID, n.Material)
		}
	}
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("%w: null child in %s", ErrInvalidDocument, n.UUID)
		}
		if err := d.validateNode(c); err != nil {
			return err
		}
	}
	return nil
}

// ParseObjectDocuments decodes a JSON array of object documents. A single
// top-level document is accepted as a one-element array.
func ParseObjectDocuments(data []byte) ([]*ObjectDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	var docs []*ObjectDocument
	if trimmed[0] == '{' {
		doc := new(ObjectDocument)
		if err := json.Unmarshal(trimmed, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		docs = append(docs, doc)
	} else if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrInvalidDocument, i)
		}
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return docs, nil
}

// MarshalObjectDocuments encodes documents as a JSON array.
func MarshalObjectDocuments(docs []*ObjectDocument) ([]byte, error) {
	if docs == nil {
		docs = []*ObjectDocument{}
	}
	return json.Marshal(docs)
}
