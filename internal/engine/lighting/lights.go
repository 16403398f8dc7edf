// Package lighting gathers scene lights into shader uniforms.
package lighting

import (
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Environment is the per-frame lighting state uploaded to the mesh shader.
type Environment struct {
	Ambient    [3]float32 // color * intensity
	LightColor [3]float32 // color * intensity
	LightDir   math.Vec3  // normalized, points from the surface towards the light
}

// Direction returns the normalized direction from target towards the light
// at position. A light sitting on its target shines straight down.
func Direction(position, target math.Vec3) math.Vec3 {
	d := position.Sub(target)
	if d.Length() == 0 {
		return math.V3(0, 1, 0)
	}
	return d.Normalize()
}

// FromScene collects the first ambient and directional lights of a scene.
// Missing lights contribute nothing.
func FromScene(s *scene.Scene) Environment {
	env := Environment{LightDir: math.V3(0, 1, 0)}

	if n := s.FirstOfKind(scene.KindAmbientLight); n != nil && n.Light != nil {
		env.Ambient = scaled(n.Light.Color, n.Light.Intensity)
	}
	if n := s.FirstOfKind(scene.KindDirectionalLight); n != nil && n.Light != nil {
		env.LightColor = scaled(n.Light.Color, n.Light.Intensity)
		env.LightDir = Direction(n.Position, n.Light.Target)
	}
	return env
}

func scaled(c [3]float32, k float32) [3]float32 {
	return [3]float32{c[0] * k, c[1] * k, c[2] * k}
}
