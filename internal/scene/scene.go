package scene

import (
	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Scene is the ordered list of root nodes plus the selections that track them.
type Scene struct {
	children   []*Node
	selections []*Selection
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// NewDefault creates a scene with the fixed camera, lights and ground grid.
func NewDefault(vp config.ViewportConfig) *Scene {
	s := New()

	cam := NewNode(KindCamera, "Camera")
	cam.Fixed = true
	cam.Position = math.V3(vp.CameraPosition[0], vp.CameraPosition[1], vp.CameraPosition[2])
	cam.Camera = &Camera{FOV: vp.FOV, Near: vp.Near, Far: vp.Far}
	s.Add(cam)

	ambient := NewNode(KindAmbientLight, "AmbientLight")
	ambient.Fixed = true
	ambient.Light = &Light{Color: config.RGB(vp.Ambient.Color), Intensity: vp.Ambient.Intensity}
	s.Add(ambient)

	sun := NewNode(KindDirectionalLight, "DirectionalLight")
	sun.Fixed = true
	p := vp.Directional.Position
	sun.Position = math.V3(p[0], p[1], p[2])
	sun.Light = &Light{Color: config.RGB(vp.Directional.Color), Intensity: vp.Directional.Intensity}
	s.Add(sun)

	grid := NewNode(KindGrid, "GridHelper")
	grid.Fixed = true
	grid.Position = math.V3(0, vp.Grid.Y, 0)
	grid.Grid = &Grid{
		Size:        vp.Grid.Size,
		Divisions:   vp.Grid.Divisions,
		CenterColor: config.RGB(vp.Grid.CenterColor),
		Color:       config.RGB(vp.Grid.Color),
		Opacity:     vp.Grid.Opacity,
	}
	s.Add(grid)

	return s
}

// Add appends a root node.
func (s *Scene) Add(n *Node) {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
	s.children = append(s.children, n)
}

// Remove detaches a root node and clears any selection inside its subtree.
func (s *Scene) Remove(n *Node) bool {
	for i, c := range s.children {
		if c == n {
			s.children = append(s.children[:i], s.children[i+1:]...)
			s.forget(n)
			return true
		}
	}
	return false
}

// ReplaceContent removes every non-fixed root node and appends nodes in order.
func (s *Scene) ReplaceContent(nodes []*Node) {
	kept := s.children[:0]
	var removed []*Node
	for _, c := range s.children {
		if c.Fixed {
			kept = append(kept, c)
		} else {
			removed = append(removed, c)
		}
	}
	s.children = kept
	for _, n := range removed {
		s.forget(n)
	}
	for _, n := range nodes {
		s.Add(n)
	}
}

// Children returns a copy of the root nodes in order.
func (s *Scene) Children() []*Node {
	out := make([]*Node, len(s.children))
	copy(out, s.children)
	return out
}

// Editable returns the non-fixed root nodes in order.
func (s *Scene) Editable() []*Node {
	var out []*Node
	for _, c := range s.children {
		if !c.Fixed {
			out = append(out, c)
		}
	}
	return out
}

// FixedNodes returns the infrastructure nodes in order.
func (s *Scene) FixedNodes() []*Node {
	var out []*Node
	for _, c := range s.children {
		if c.Fixed {
			out = append(out, c)
		}
	}
	return out
}

// Contains reports whether n is reachable from the scene roots.
func (s *Scene) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	root := n.Root()
	for _, c := range s.children {
		if c == root {
			return true
		}
	}
	return false
}

// FindByUUID searches the whole graph.
func (s *Scene) FindByUUID(id string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if n.UUID == id {
			found = n
		}
		return found == nil
	})
	return found
}

// FirstOfKind returns the first root node of the given kind.
func (s *Scene) FirstOfKind(kind Kind) *Node {
	for _, c := range s.children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Walk visits every node depth-first.
func (s *Scene) Walk(fn func(*Node) bool) {
	for _, c := range s.children {
		if !c.Walk(fn) {
			return
		}
	}
}

// Track registers a selection to be cleared when its node leaves the scene.
func (s *Scene) Track(sel *Selection) {
	s.selections = append(s.selections, sel)
}

func (s *Scene) forget(removed *Node) {
	for _, sel := range s.selections {
		if sel.node != nil && removed.Contains(sel.node) {
			sel.Clear()
		}
	}
}
