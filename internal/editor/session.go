// Package editor ties the scene, the selection, the transform form and the
// file operations together into one editing session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/internal/fileio"
	"github.com/Faultbox/scenedit/internal/importer"
	"github.com/Faultbox/scenedit/internal/logger"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// Session errors.
var (
	ErrNoSelection   = errors.New("no object selected")
	ErrInvalidNumber = errors.New("invalid number")
	ErrBusy          = errors.New("a file operation is already in progress")
)

// ScalePercent is the default scale divisor: a scale field of 100 is identity.
const ScalePercent = 100

// LoadedMessage is shown after a scene file was applied.
const LoadedMessage = "Scene loaded successfully!"

// Form holds the raw text of the transform panel fields.
type Form struct {
	MoveX, MoveY, MoveZ       string
	RotateX, RotateY, RotateZ string
	Scale                     string
}

// DefaultForm returns the initial field values.
func DefaultForm(cfg config.EditorConfig) Form {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return Form{
		MoveX:   f(cfg.DefaultMove[0]),
		MoveY:   f(cfg.DefaultMove[1]),
		MoveZ:   f(cfg.DefaultMove[2]),
		RotateX: f(cfg.DefaultRotate[0]),
		RotateY: f(cfg.DefaultRotate[1]),
		RotateZ: f(cfg.DefaultRotate[2]),
		Scale:   f(cfg.DefaultScale),
	}
}

// Session is the editor state. All methods except the request callbacks'
// background halves must be called from the main thread.
type Session struct {
	Scene     *scene.Scene
	Selection *scene.Selection
	Form      Form

	cfg        *config.Config
	picker     fileio.Picker
	notifier   fileio.Notifier
	dispatcher *fileio.Dispatcher
	importer   *importer.Importer

	ctx    context.Context
	cancel context.CancelFunc

	busy      string
	status    string
	statusErr bool
	log       *zap.Logger
}

// NewSession creates a session with the default scene.
func NewSession(cfg *config.Config, picker fileio.Picker, notifier fileio.Notifier) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	sc := scene.NewDefault(cfg.Viewport)
	return &Session{
		Scene:      sc,
		Selection:  scene.NewSelection(sc),
		Form:       DefaultForm(cfg.Editor),
		cfg:        cfg,
		picker:     picker,
		notifier:   notifier,
		dispatcher: fileio.NewDispatcher(),
		importer:   importer.New(importer.Options{MaxTextureSize: cfg.Importer.MaxTextureSize}),
		ctx:        ctx,
		cancel:     cancel,
		status:     "Ready",
		log:        logger.Named("editor"),
	}
}

// Close stops pending file operations from reporting back.
func (s *Session) Close() {
	s.cancel()
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Dispatcher returns the main-thread queue.
func (s *Session) Dispatcher() *fileio.Dispatcher {
	return s.dispatcher
}

// Pump runs completions queued by background work. Call once per frame.
func (s *Session) Pump() int {
	return s.dispatcher.Drain()
}

// Busy reports whether a file operation is in flight.
func (s *Session) Busy() bool {
	return s.busy != ""
}

// Status returns the last message for the status line.
func (s *Session) Status() string {
	return s.status
}

// StatusIsError reports whether the status line holds a failure.
func (s *Session) StatusIsError() bool {
	return s.statusErr
}

// SelectionName returns the selected node's name or "none".
func (s *Session) SelectionName() string {
	n := s.selected()
	if n == nil {
		return "none"
	}
	if n.Name == "" {
		return n.Kind.String()
	}
	return n.Name
}

// Selected returns the selected node, or nil.
func (s *Session) Selected() *scene.Node {
	return s.selected()
}

// Select makes n the current selection. nil clears it.
func (s *Session) Select(n *scene.Node) {
	if n == nil {
		s.Selection.Clear()
		return
	}
	s.Selection.Set(n)
	s.setStatus("Selected " + s.SelectionName())
}

// ScaleDivisor returns the configured divisor for the scale field.
func (s *Session) ScaleDivisor() float64 {
	if s.cfg.Editor.ScaleDivisor == 0 {
		return ScalePercent
	}
	return s.cfg.Editor.ScaleDivisor
}

func (s *Session) selected() *scene.Node {
	if !s.Selection.Valid(s.Scene) {
		s.Selection.Clear()
		return nil
	}
	return s.Selection.Node()
}

func (s *Session) setStatus(msg string) {
	s.status = msg
	s.statusErr = false
}

func (s *Session) setError(msg string) {
	s.status = msg
	s.statusErr = true
}

func (s *Session) reportError(title string, err error) {
	s.log.Error(title, zap.Error(err))
	s.setError(title + ": " + err.Error())
	if s.notifier != nil {
		s.notifier.Error(title, err.Error())
	}
}

// parseNumber accepts any finite float after trimming whitespace.
func parseNumber(field, text string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
	if err != nil {
		return 0, fmt.Errorf("%w in %s: %q", ErrInvalidNumber, field, text)
	}
	f := float32(v)
	if !math.V3(f, 0, 0).IsFinite() {
		return 0, fmt.Errorf("%w in %s: %q is not finite", ErrInvalidNumber, field, text)
	}
	return f, nil
}

func parseTriple(names [3]string, values [3]string) (math.Vec3, error) {
	var out [3]float32
	for i := range values {
		v, err := parseNumber(names[i], values[i])
		if err != nil {
			return math.Vec3{}, err
		}
		out[i] = v
	}
	return math.V3(out[0], out[1], out[2]), nil
}

func baseName(path string) string {
	return filepath.Base(path)
}
