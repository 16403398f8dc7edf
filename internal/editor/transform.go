package editor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// ApplyMove sets the selection's position to the move fields.
func (s *Session) ApplyMove() error {
	n, err := s.target("move")
	if err != nil {
		return err
	}
	p, err := parseTriple([3]string{"Move X", "Move Y", "Move Z"},
		[3]string{s.Form.MoveX, s.Form.MoveY, s.Form.MoveZ})
	if err != nil {
		return s.rejectInput(err)
	}

	n.Position = p
	s.log.Debug("moved", zap.String("node", n.Name), zap.Float32s("position", []float32{p.X, p.Y, p.Z}))
	s.setStatus(fmt.Sprintf("Moved %s to (%g, %g, %g)", s.SelectionName(), p.X, p.Y, p.Z))
	return nil
}

// ApplyRotate sets the selection's Euler rotation from the degree fields.
func (s *Session) ApplyRotate() error {
	n, err := s.target("rotate")
	if err != nil {
		return err
	}
	deg, err := parseTriple([3]string{"Rotate X", "Rotate Y", "Rotate Z"},
		[3]string{s.Form.RotateX, s.Form.RotateY, s.Form.RotateZ})
	if err != nil {
		return s.rejectInput(err)
	}

	n.Rotation = math.V3(math.DegToRad(deg.X), math.DegToRad(deg.Y), math.DegToRad(deg.Z))
	s.log.Debug("rotated", zap.String("node", n.Name), zap.Float32s("degrees", []float32{deg.X, deg.Y, deg.Z}))
	s.setStatus(fmt.Sprintf("Rotated %s to (%g°, %g°, %g°)", s.SelectionName(), deg.X, deg.Y, deg.Z))
	return nil
}

// ApplyScale sets a uniform scale of field / ScaleDivisor.
func (s *Session) ApplyScale() error {
	n, err := s.target("scale")
	if err != nil {
		return err
	}
	v, err := parseNumber("Scale", s.Form.Scale)
	if err != nil {
		return s.rejectInput(err)
	}

	f := float32(float64(v) / s.ScaleDivisor())
	n.Scale = math.Splat(f)
	s.log.Debug("scaled", zap.String("node", n.Name), zap.Float32("scale", f))
	s.setStatus(fmt.Sprintf("Scaled %s to %g", s.SelectionName(), f))
	return nil
}

func (s *Session) target(op string) (*scene.Node, error) {
	n := s.selected()
	if n == nil {
		s.log.Debug("apply ignored without selection", zap.String("op", op))
		return nil, ErrNoSelection
	}
	return n, nil
}

func (s *Session) rejectInput(err error) error {
	s.log.Debug("input rejected", zap.Error(err))
	s.setError(err.Error())
	return err
}
