// Package app wires the window, viewport and panel into the editor's main loop.
package app

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/internal/editor"
	"github.com/Faultbox/scenedit/internal/engine/camera"
	"github.com/Faultbox/scenedit/internal/engine/debug"
	"github.com/Faultbox/scenedit/internal/engine/framebuffer"
	"github.com/Faultbox/scenedit/internal/engine/input"
	"github.com/Faultbox/scenedit/internal/engine/picking"
	"github.com/Faultbox/scenedit/internal/engine/renderer"
	"github.com/Faultbox/scenedit/internal/engine/ui2d"
	"github.com/Faultbox/scenedit/internal/engine/window"
	"github.com/Faultbox/scenedit/internal/logger"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/internal/ui"
)

// displayGamma matches the gamma the scene blit applies.
const displayGamma = 2.2

// App owns the GPU resources and runs the frame loop.
type App struct {
	cfg     *config.Config
	session *editor.Session

	window   *window.Window
	scene3D  *renderer.Renderer
	ui2d     *ui2d.Renderer
	ui       *ui2d.Context
	panel    *ui.TransformPanel
	fb       *framebuffer.Framebuffer
	camera   *camera.OrbitCamera
	input    *input.Input
	shots    *debug.ScreenshotCapture
	startup  []func() error
	orbiting bool
	running  bool

	log *zap.Logger
}

// New opens the window and creates the renderers for session.
func New(cfg *config.Config, session *editor.Session) (*App, error) {
	a := &App{
		cfg:     cfg,
		session: session,
		input:   input.New(),
		log:     logger.Named("app"),
	}

	var err error
	if a.window, err = window.New(cfg.Window); err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	if a.scene3D, err = renderer.New(); err != nil {
		a.Close()
		return nil, fmt.Errorf("create scene renderer: %w", err)
	}

	ww, wh := a.window.GetSize()
	if a.ui2d, err = ui2d.New(ww, wh); err != nil {
		a.Close()
		return nil, fmt.Errorf("create ui renderer: %w", err)
	}
	a.ui = ui2d.NewContext(a.ui2d)
	a.panel = ui.NewTransformPanel(session)

	dw, dh := a.window.DrawableSize()
	if a.fb, err = framebuffer.New(dw, dh); err != nil {
		a.Close()
		return nil, fmt.Errorf("create framebuffer: %w", err)
	}
	a.camera = camera.FromNode(session.Scene.FirstOfKind(scene.KindCamera), dw, dh)

	a.shots = debug.NewScreenshotCapture(cfg.Editor.ScreenshotDir, "scenedit")
	a.shots.SetGamma(displayGamma)

	return a, nil
}

// Queue schedules a file operation to start once no other is running.
// Used for command-line imports and scene loads.
func (a *App) Queue(op func() error) {
	a.startup = append(a.startup, op)
}

// Close releases GPU resources and the window.
func (a *App) Close() {
	if a.fb != nil {
		a.fb.Destroy()
	}
	if a.ui2d != nil {
		a.ui2d.Close()
	}
	if a.scene3D != nil {
		a.scene3D.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

// Run drives frames until the window closes or Escape is pressed.
func (a *App) Run() {
	a.log.Info("entering main loop")
	a.running = true
	for a.running {
		a.frame()
	}
	a.log.Info("main loop finished")
}

func (a *App) frame() {
	in := a.ui.Input()
	if a.input.Update(in) {
		a.running = false
	}
	for _, ev := range a.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			a.resize()
		case input.EventKeyDown:
			a.handleKey(ev.Key)
		}
	}

	a.session.Pump()
	a.runStartup()

	a.fb.Bind()
	a.fb.Clear(renderer.ClearColor(a.cfg.Viewport.ClearColor))
	a.scene3D.Render(a.session.Scene, a.session.Selected(), a.camera)
	a.fb.Unbind()

	dw, dh := a.window.DrawableSize()
	gl.Viewport(0, 0, int32(dw), int32(dh))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	sw, sh := a.ui.GetScreenSize()
	a.ui2d.DrawSceneTexture(0, 0, sw, sh, a.fb.ColorTexture())

	a.ui.Begin()
	a.panel.Draw(a.ui)
	// Widgets have consumed their clicks; whatever is left goes to the viewport
	a.handleViewport(in)
	a.ui.End()

	a.window.SwapBuffers()
}

// runStartup starts the next queued operation when the session is idle.
func (a *App) runStartup() {
	if len(a.startup) == 0 || a.session.Busy() {
		return
	}
	op := a.startup[0]
	a.startup = a.startup[1:]
	if err := op(); err != nil {
		a.log.Warn("startup operation failed", zap.Error(err))
	}
}

func (a *App) resize() {
	ww, wh := a.window.GetSize()
	dw, dh := a.window.DrawableSize()
	a.ui.Resize(ww, wh)
	a.camera.Resize(dw, dh)
	if a.fb.Resize(dw, dh) {
		a.log.Debug("viewport resized",
			zap.Int("width", ww), zap.Int("height", wh),
			zap.Int("drawable_width", dw), zap.Int("drawable_height", dh))
	}
}

func (a *App) handleKey(key sdl.Scancode) {
	if a.ui.WantsKeyboard() {
		return
	}
	switch key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_F12:
		a.screenshot()
	case sdl.SCANCODE_F:
		a.frameSelection()
	}
}

// handleViewport orbits, zooms and picks with input the panel left alone.
func (a *App) handleViewport(in *ui2d.InputState) {
	overUI := a.ui.WantsMouse()

	if in.MouseRightPressed && !overUI {
		a.orbiting = true
	}
	if !in.MouseRightDown {
		a.orbiting = false
	}
	if a.orbiting {
		a.camera.HandleDrag(in.MouseDeltaX, in.MouseDeltaY)
	}

	if overUI {
		return
	}
	if in.ScrollY != 0 {
		a.camera.HandleZoom(in.ScrollY)
	}
	if in.MouseLeftPressed || in.MouseLeftClicked {
		a.pick(in.MouseX, in.MouseY)
	}
}

// pick selects the nearest editable node under the cursor. Clicking empty
// space keeps the current selection.
func (a *App) pick(x, y float32) {
	sw, sh := a.ui.GetScreenSize()
	if sw <= 0 || sh <= 0 {
		return
	}
	ray := picking.ScreenToRay(x, y, sw, sh, a.camera.ViewProjection().Inverse())
	n, dist, ok := picking.PickNode(ray, a.session.Scene.Editable())
	if !ok {
		return
	}
	a.log.Debug("picked", zap.String("node", n.Name), zap.Float32("distance", dist))
	a.session.Select(n)
}

// frameSelection points the camera at the selection's bounds.
func (a *App) frameSelection() {
	n := a.session.Selected()
	if n == nil {
		return
	}
	if lo, hi, ok := n.WorldBounds(); ok {
		a.camera.FitToBounds(lo, hi)
	}
}

func (a *App) screenshot() {
	w, h := a.fb.Size()
	path, err := a.shots.CaptureFromPixels(a.fb.ReadPixels(), w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}
