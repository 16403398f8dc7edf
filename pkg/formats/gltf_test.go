package formats

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/scenedit/pkg/formats/formatstest"
)

func TestIsGLTF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"glb magic", []byte("glTF\x02\x00\x00\x00"), true},
		{"json", []byte(`  {"asset":{"version":"2.0"}}`), true},
		{"bom json", []byte("\xef\xbb\xbf{}"), true},
		{"png", []byte("\x89PNG\r\n"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGLTF(tt.data); got != tt.want {
				t.Errorf("IsGLTF = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseGLTF_NotGLTF(t *testing.T) {
	_, err := ParseGLTF([]byte("hello"), nil)
	if !errors.Is(err, ErrNotGLTF) {
		t.Errorf("expected ErrNotGLTF, got %v", err)
	}
}

func TestParseGLTF_Corrupt(t *testing.T) {
	_, err := ParseGLTF([]byte("glTF\x02\x00\x00\x00garbage"), nil)
	if err == nil {
		t.Fatal("expected error for truncated GLB")
	}
}

// triangleDoc returns a minimal .gltf document with one triangle, as a
// generic map so cases can break individual references.
func triangleDoc() map[string]any {
	buf := make([]byte, 0, 36)
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"buffers": []any{map[string]any{
			"byteLength": len(buf),
			"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf),
		}},
		"bufferViews": []any{map[string]any{"buffer": 0, "byteLength": len(buf)}},
		"accessors": []any{map[string]any{
			"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
		}},
		"meshes": []any{map[string]any{"primitives": []any{
			map[string]any{"attributes": map[string]any{"POSITION": 0}},
		}}},
		"nodes": []any{map[string]any{"mesh": 0}},
	}
}

func primitive(doc map[string]any) map[string]any {
	mesh := doc["meshes"].([]any)[0].(map[string]any)
	return mesh["primitives"].([]any)[0].(map[string]any)
}

func TestParseGLTF_BrokenReferences(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(doc map[string]any)
		want    error
	}{
		{"valid", func(map[string]any) {}, nil},
		{"position accessor out of range", func(doc map[string]any) {
			primitive(doc)["attributes"] = map[string]any{"POSITION": 7}
		}, ErrMalformed},
		{"indices accessor out of range", func(doc map[string]any) {
			primitive(doc)["indices"] = 9
		}, ErrMalformed},
		{"material out of range", func(doc map[string]any) {
			primitive(doc)["material"] = 2
		}, ErrMalformed},
		{"image buffer view out of range", func(doc map[string]any) {
			doc["images"] = []any{map[string]any{"bufferView": 5, "mimeType": "image/png"}}
		}, ErrMalformed},
		{"child node out of range", func(doc map[string]any) {
			doc["nodes"] = []any{map[string]any{"mesh": 0, "children": []any{3}}}
		}, ErrMalformed},
		{"node mesh out of range", func(doc map[string]any) {
			doc["nodes"] = []any{map[string]any{"mesh": 4}}
		}, ErrMalformed},
		{"scene node out of range", func(doc map[string]any) {
			doc["scenes"] = []any{map[string]any{"nodes": []any{0, 6}}}
		}, ErrMalformed},
		{"null mesh", func(doc map[string]any) {
			doc["meshes"] = []any{nil}
			doc["nodes"] = []any{}
		}, ErrMalformed},
		{"null buffer", func(doc map[string]any) {
			doc["buffers"] = []any{nil}
		}, ErrMalformed},
		{"accessor buffer view out of range", func(doc map[string]any) {
			doc["accessors"].([]any)[0].(map[string]any)["bufferView"] = 3
		}, ErrMalformed},
		{"accessor overruns buffer view", func(doc map[string]any) {
			doc["accessors"].([]any)[0].(map[string]any)["count"] = 100
		}, ErrNoGeometry},
		{"accessor without buffer view", func(doc map[string]any) {
			delete(doc["accessors"].([]any)[0].(map[string]any), "bufferView")
		}, ErrNoGeometry},
		{"primitive without position", func(doc map[string]any) {
			primitive(doc)["attributes"] = map[string]any{"NORMAL": 0}
		}, ErrNoGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDoc()
			tt.corrupt(doc)
			data, err := json.Marshal(doc)
			if err != nil {
				t.Fatalf("encoding fixture: %v", err)
			}

			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseGLTF panicked: %v", r)
				}
			}()
			m, err := ParseGLTF(data, nil)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ParseGLTF failed: %v", err)
				}
				if len(m.Meshes) != 1 || len(m.Meshes[0].Primitives) != 1 {
					t.Fatalf("expected one primitive, got %+v", m.Meshes)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseGLTF_Cube(t *testing.T) {
	data, err := formatstest.Cube(formatstest.CubeOptions{
		Name:        "Box",
		Translation: [3]float64{1, 2, 3},
		Color:       [4]float64{1, 0, 0, 1},
		Child:       true,
	})
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	m, err := ParseGLTF(data, nil)
	if err != nil {
		t.Fatalf("ParseGLTF failed: %v", err)
	}

	if len(m.Roots) != 1 || m.Roots[0] != 0 {
		t.Fatalf("expected single root 0, got %v", m.Roots)
	}
	if len(m.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(m.Nodes))
	}

	root := m.Nodes[0]
	if root.Name != "Box" {
		t.Errorf("expected root name Box, got %q", root.Name)
	}
	if root.Translation != [3]float32{1, 2, 3} {
		t.Errorf("unexpected translation %v", root.Translation)
	}
	if root.Rotation != [4]float32{0, 0, 0, 1} {
		t.Errorf("expected identity rotation, got %v", root.Rotation)
	}
	if root.HasMatrix {
		t.Error("TRS node should not report a matrix")
	}
	if len(root.Children) != 1 || root.Children[0] != 1 {
		t.Errorf("expected child 1, got %v", root.Children)
	}
	if m.Nodes[1].Scale != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("unexpected child scale %v", m.Nodes[1].Scale)
	}

	if len(m.Meshes) != 1 || len(m.Meshes[0].Primitives) != 1 {
		t.Fatalf("expected 1 mesh with 1 primitive")
	}
	prim := m.Meshes[0].Primitives[0]
	if len(prim.Positions) != 8*3 {
		t.Errorf("expected 24 position floats, got %d", len(prim.Positions))
	}
	if len(prim.UVs) != 8*2 {
		t.Errorf("expected 16 uv floats, got %d", len(prim.UVs))
	}
	if len(prim.Indices) != formatstest.CubeTriangles*3 {
		t.Errorf("expected %d indices, got %d", formatstest.CubeTriangles*3, len(prim.Indices))
	}
	if len(prim.Normals) != len(prim.Positions) {
		t.Errorf("normals should be generated when missing, got %d", len(prim.Normals))
	}
	if prim.Material != 0 {
		t.Errorf("expected material 0, got %d", prim.Material)
	}

	mat := m.Materials[0]
	if mat.BaseColor != [4]float32{1, 0, 0, 1} {
		t.Errorf("unexpected base colour %v", mat.BaseColor)
	}
	if mat.Image != -1 {
		t.Errorf("untextured material should have image -1, got %d", mat.Image)
	}
}

func TestParseGLTF_EmbeddedTexture(t *testing.T) {
	data, err := formatstest.Cube(formatstest.CubeOptions{Texture: true})
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	m, err := ParseGLTF(data, nil)
	if err != nil {
		t.Fatalf("ParseGLTF failed: %v", err)
	}
	if len(m.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", m.Warnings)
	}
	if m.Materials[0].Image != 0 {
		t.Fatalf("expected image 0, got %d", m.Materials[0].Image)
	}
	img := m.Images[0]
	if img.MimeType != "image/png" {
		t.Errorf("expected image/png, got %q", img.MimeType)
	}
	if len(img.Data) < 8 || string(img.Data[1:4]) != "PNG" {
		t.Error("image payload should be a PNG")
	}
}

func TestParseGLTFFile_Text(t *testing.T) {
	data, err := formatstest.Cube(formatstest.CubeOptions{Text: true})
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "crate.gltf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := ParseGLTFFile(path)
	if err != nil {
		t.Fatalf("ParseGLTFFile failed: %v", err)
	}
	if len(m.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(m.Nodes))
	}
}

func TestStripAndFan(t *testing.T) {
	strip := stripToList([]uint32{0, 1, 2, 3})
	want := []uint32{0, 1, 2, 2, 1, 3}
	if !equalU32(strip, want) {
		t.Errorf("stripToList = %v, want %v", strip, want)
	}

	fan := fanToList([]uint32{0, 1, 2, 3})
	want = []uint32{0, 1, 2, 0, 2, 3}
	if !equalU32(fan, want) {
		t.Errorf("fanToList = %v, want %v", fan, want)
	}

	if stripToList([]uint32{0, 1}) != nil || fanToList(nil) != nil {
		t.Error("degenerate input should produce no triangles")
	}
}

func TestComputeNormals(t *testing.T) {
	// Single CCW triangle in the XY plane faces +Z.
	pos := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	n := ComputeNormals(pos, []uint32{0, 1, 2})
	for v := 0; v < 3; v++ {
		if n[v*3] != 0 || n[v*3+1] != 0 || n[v*3+2] != 1 {
			t.Errorf("vertex %d normal = %v", v, n[v*3:v*3+3])
		}
	}
}

func TestDataURI(t *testing.T) {
	uri := EncodeDataURI("text/plain", []byte("hi"))
	if uri != "data:text/plain;base64,aGk=" {
		t.Errorf("unexpected uri %q", uri)
	}

	mime, data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "text/plain" || string(data) != "hi" {
		t.Errorf("got %q %q", mime, data)
	}

	if _, _, err := DecodeDataURI("data:nocomma"); err == nil {
		t.Error("expected error for malformed uri")
	}
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
