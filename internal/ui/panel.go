// Package ui provides the editor's on-screen panels.
package ui

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/editor"
	"github.com/Faultbox/scenedit/internal/engine/ui2d"
	"github.com/Faultbox/scenedit/internal/logger"
)

// PanelID is the window id of the transform panel.
const PanelID = "transform"

const (
	panelX     = 16
	panelY     = 16
	panelWidth = 300
	rowHeight  = 24
	fieldWidth = 76
	lineHeight = 14
)

// TransformPanel draws the transform and file controls for a session.
type TransformPanel struct {
	session *editor.Session
	log     *zap.Logger
}

// NewTransformPanel creates a panel bound to s.
func NewTransformPanel(s *editor.Session) *TransformPanel {
	return &TransformPanel{
		session: s,
		log:     logger.Named("ui"),
	}
}

// Draw lays the panel out in ctx. Call between ctx.Begin and ctx.End.
func (p *TransformPanel) Draw(ctx *ui2d.Context) {
	if !ctx.BeginWindow(PanelID, panelX, panelY, panelWidth, 0, "Transform") {
		return
	}
	defer ctx.EndWindow()

	s := p.session
	busy := s.Busy()

	ctx.Row(rowHeight)
	if p.fileButton(ctx, "add", "Add Model", busy) {
		p.run("add model", s.RequestImport)
	}

	ctx.Separator()
	ctx.Row(lineHeight)
	ctx.LabelColored("Move", ui2d.ColorTextDim)
	ctx.Row(rowHeight)
	moveSubmit := p.axisField(ctx, "X", "move_x", &s.Form.MoveX)
	moveSubmit = p.axisField(ctx, "Y", "move_y", &s.Form.MoveY) || moveSubmit
	moveSubmit = p.axisField(ctx, "Z", "move_z", &s.Form.MoveZ) || moveSubmit
	ctx.Row(rowHeight)
	if ctx.Button("apply_move", 0, "Apply Move") || moveSubmit {
		p.run("apply move", s.ApplyMove)
	}

	ctx.Separator()
	ctx.Row(lineHeight)
	ctx.LabelColored("Rotate (degrees)", ui2d.ColorTextDim)
	ctx.Row(rowHeight)
	rotSubmit := p.axisField(ctx, "X", "rotate_x", &s.Form.RotateX)
	rotSubmit = p.axisField(ctx, "Y", "rotate_y", &s.Form.RotateY) || rotSubmit
	rotSubmit = p.axisField(ctx, "Z", "rotate_z", &s.Form.RotateZ) || rotSubmit
	ctx.Row(rowHeight)
	if ctx.Button("apply_rotate", 0, "Apply Rotate") || rotSubmit {
		p.run("apply rotate", s.ApplyRotate)
	}

	ctx.Separator()
	ctx.Row(lineHeight)
	ctx.LabelColored("Scale (%)", ui2d.ColorTextDim)
	ctx.Row(rowHeight)
	scaleSubmit := p.field(ctx, "scale", &s.Form.Scale)
	if ctx.Button("apply_scale", 0, "Apply Scale") || scaleSubmit {
		p.run("apply scale", s.ApplyScale)
	}

	ctx.Separator()
	ctx.Row(rowHeight)
	half := float32(panelWidth-2*8-4) / 2
	if p.fileButton(ctx, "save", "Save Scene", busy, half) {
		p.run("save scene", s.RequestSave)
	}
	if p.fileButton(ctx, "load", "Load Scene", busy, half) {
		p.run("load scene", s.RequestLoad)
	}

	ctx.Separator()
	ctx.Row(lineHeight)
	ctx.Label("Selected: " + s.SelectionName())
	ctx.Row(lineHeight)
	color := ui2d.ColorTextDim
	if s.StatusIsError() {
		color = ui2d.ColorError
	}
	ctx.LabelWrapped(s.Status(), color)
}

// field draws a number input bound to value and reports Enter.
func (p *TransformPanel) field(ctx *ui2d.Context, id string, value *string) bool {
	text, changed, submitted := ctx.NumberInput(id, fieldWidth, *value)
	if changed {
		*value = text
	}
	return submitted
}

// axisField is a number input captioned with its axis.
func (p *TransformPanel) axisField(ctx *ui2d.Context, axis, id string, value *string) bool {
	ctx.LabelColored(axis, ui2d.ColorTextDim)
	return p.field(ctx, id, value)
}

// fileButton is greyed out while a file operation is running.
func (p *TransformPanel) fileButton(ctx *ui2d.Context, id, label string, busy bool, width ...float32) bool {
	var w float32
	if len(width) > 0 {
		w = width[0]
	}
	if busy {
		ctx.ButtonDisabled(id, w, label)
		return false
	}
	return ctx.Button(id, w, label)
}

// run invokes a session action. The session reports failures on its
// status line, so they are only logged here.
func (p *TransformPanel) run(action string, fn func() error) {
	if err := fn(); err != nil {
		p.log.Debug("action failed", zap.String("action", action), zap.Error(err))
	}
}
