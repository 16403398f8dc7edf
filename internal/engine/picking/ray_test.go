package picking

import (
	"testing"

	"github.com/Faultbox/scenedit/internal/engine/camera"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

func unitCube(name string) *scene.Node {
	geom := &scene.Geometry{
		Positions: []float32{
			-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
			-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	return scene.NewMesh(name, geom, nil)
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(math.V3(1, 1, 1), math.V3(-1, -1, -1))
	if box.Min != math.V3(-1, -1, -1) {
		t.Fatalf("NewAABB did not order corners: %+v", box)
	}

	tests := []struct {
		name    string
		ray     Ray
		wantHit bool
		wantT   float32
	}{
		{"front", Ray{Origin: math.V3(0, 0, 10), Direction: math.V3(0, 0, -1)}, true, 9},
		{"miss", Ray{Origin: math.V3(5, 0, 10), Direction: math.V3(0, 0, -1)}, false, 0},
		{"behind", Ray{Origin: math.V3(0, 0, 10), Direction: math.V3(0, 0, 1)}, false, 0},
		{"inside", Ray{Origin: math.Vec3{}, Direction: math.V3(1, 0, 0)}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && got != tt.wantT {
				t.Errorf("t = %f, want %f", got, tt.wantT)
			}
		})
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: math.V3(0, 10, 0), Direction: math.V3(0, -1, 0)}
	x, z, ok := r.IntersectPlaneY(-10)
	if !ok || x != 0 || z != 0 {
		t.Errorf("IntersectPlaneY = %f,%f,%v", x, z, ok)
	}

	r.Direction = math.V3(1, 0, 0)
	if _, _, ok := r.IntersectPlaneY(-10); ok {
		t.Error("parallel ray should miss")
	}
}

func TestScreenToRayCenter(t *testing.T) {
	cam := camera.New(75, 0.1, 1000, math.V3(0, 0, 30), math.Vec3{})
	cam.Resize(800, 600)

	r := ScreenToRay(400, 300, 800, 600, cam.ViewProjection().Inverse())
	if r.Direction.Z > -0.999 {
		t.Errorf("center ray direction = %+v, want -Z", r.Direction)
	}
	if d := r.Origin.Z; d < 29 || d > 30 {
		t.Errorf("origin z = %f, want near plane in front of the eye", d)
	}
}

func TestPickNodeNearest(t *testing.T) {
	far := unitCube("far")
	near := unitCube("near")
	near.Position = math.V3(0, 0, 5)
	aside := unitCube("aside")
	aside.Position = math.V3(20, 0, 0)
	empty := scene.NewGroup("empty")

	r := Ray{Origin: math.V3(0, 0, 30), Direction: math.V3(0, 0, -1)}
	got, dist, ok := PickNode(r, []*scene.Node{far, empty, aside, near})
	if !ok || got != near {
		t.Fatalf("PickNode = %v, want near", got)
	}
	if dist != 24 {
		t.Errorf("dist = %f, want 24", dist)
	}

	r.Origin = math.V3(50, 0, 30)
	if _, _, ok := PickNode(r, []*scene.Node{far, near}); ok {
		t.Error("expected miss")
	}
}

func TestPickNodeUsesChildren(t *testing.T) {
	group := scene.NewGroup("model")
	child := unitCube("child")
	child.Position = math.V3(0, 3, 0)
	group.Add(child)

	r := Ray{Origin: math.V3(0, 3, 30), Direction: math.V3(0, 0, -1)}
	got, _, ok := PickNode(r, []*scene.Node{group})
	if !ok || got != group {
		t.Errorf("PickNode = %v, want group", got)
	}
}
