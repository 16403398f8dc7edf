package editor

import (
	"bytes"
	"errors"
	stdmath "math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/internal/fileio"
	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/formats"
	"github.com/Faultbox/scenedit/pkg/formats/formatstest"
	"github.com/Faultbox/scenedit/pkg/math"
)

type fakePicker struct {
	open    string
	save    string
	err     error
	release chan struct{} // when set, dialogs block until closed
}

func (p *fakePicker) wait() {
	if p.release != nil {
		<-p.release
	}
}

func (p *fakePicker) OpenFile(string, ...fileio.Filter) (string, error) {
	p.wait()
	return p.open, p.err
}

func (p *fakePicker) SaveFile(string, string, ...fileio.Filter) (string, error) {
	p.wait()
	return p.save, p.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *fakeNotifier) Info(_, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *fakeNotifier) Error(_, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func newSession(t *testing.T, picker *fakePicker) (*Session, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	s := NewSession(config.Default(), picker, notifier)
	t.Cleanup(s.Close)
	return s, notifier
}

// settle pumps the dispatcher until no file operation is in flight.
func settle(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for s.Busy() {
		select {
		case <-s.Dispatcher().Pending():
			s.Pump()
		case <-deadline:
			t.Fatal("file operation did not finish")
		}
	}
	s.Pump()
}

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	data, err := formatstest.Cube(formatstest.CubeOptions{})
	require.NoError(t, err)
	path := filepath.Join(dir, "model.glb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func addModel(t *testing.T, s *Session, name string) *scene.Node {
	t.Helper()
	data, err := formatstest.Cube(formatstest.CubeOptions{})
	require.NoError(t, err)
	n, err := s.ImportBytes(name, data, nil)
	require.NoError(t, err)
	return n
}

func TestDefaultForm(t *testing.T) {
	f := DefaultForm(config.Default().Editor)
	assert.Equal(t, Form{
		MoveX: "0", MoveY: "0", MoveZ: "0",
		RotateX: "0", RotateY: "0", RotateZ: "0",
		Scale: "50",
	}, f)
}

func TestApplyMove(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	n := addModel(t, s, "a.glb")
	n.Rotation = math.V3(0.1, 0.2, 0.3)
	n.Scale = math.Splat(4)

	s.Form.MoveX, s.Form.MoveY, s.Form.MoveZ = "-3.5", " 1e3 ", "0"
	require.NoError(t, s.ApplyMove())

	assert.Equal(t, math.V3(-3.5, 1000, 0), n.Position)
	assert.Equal(t, math.V3(0.1, 0.2, 0.3), n.Rotation, "rotation untouched")
	assert.Equal(t, math.Splat(4), n.Scale, "scale untouched")

	// Idempotent and overwriting.
	require.NoError(t, s.ApplyMove())
	assert.Equal(t, math.V3(-3.5, 1000, 0), n.Position)
}

func TestApplyRotate(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	n := addModel(t, s, "a.glb")
	n.Position = math.V3(1, 2, 3)

	s.Form.RotateX, s.Form.RotateY, s.Form.RotateZ = "90", "-180", "45"
	require.NoError(t, s.ApplyRotate())

	assert.InDelta(t, stdmath.Pi/2, n.Rotation.X, 1e-6)
	assert.InDelta(t, -stdmath.Pi, n.Rotation.Y, 1e-6)
	assert.InDelta(t, stdmath.Pi/4, n.Rotation.Z, 1e-6)
	assert.Equal(t, math.V3(1, 2, 3), n.Position)
	assert.Equal(t, math.Splat(1), n.Scale)
}

func TestApplyScale(t *testing.T) {
	tests := []struct {
		field   string
		divisor float64
		want    float32
	}{
		{"50", 0, 0.5},
		{"100", 0, 1},
		{"200", 0, 2},
		{"200", 50, 4},
		{"-100", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := config.Default()
			if tt.divisor != 0 {
				cfg.Editor.ScaleDivisor = tt.divisor
			}
			s := NewSession(cfg, &fakePicker{}, &fakeNotifier{})
			defer s.Close()
			n := addModel(t, s, "a.glb")
			n.Position = math.V3(9, 9, 9)

			s.Form.Scale = tt.field
			require.NoError(t, s.ApplyScale())
			assert.Equal(t, math.Splat(tt.want), n.Scale)
			assert.Equal(t, math.V3(9, 9, 9), n.Position)
		})
	}
}

func TestApplyWithoutSelection(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	before := s.Scene.Children()

	assert.ErrorIs(t, s.ApplyMove(), ErrNoSelection)
	assert.ErrorIs(t, s.ApplyRotate(), ErrNoSelection)
	assert.ErrorIs(t, s.ApplyScale(), ErrNoSelection)

	assert.Equal(t, before, s.Scene.Children())
	assert.Empty(t, s.Scene.Editable())
	for _, n := range s.Scene.FixedNodes() {
		assert.Equal(t, math.Splat(1), n.Scale, n.Name)
	}
}

func TestApplyAfterSelectionRemoved(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	n := addModel(t, s, "a.glb")
	s.Scene.Remove(n)

	assert.ErrorIs(t, s.ApplyMove(), ErrNoSelection)
	assert.Equal(t, "none", s.SelectionName())
}

func TestApplyInvalidNumber(t *testing.T) {
	for _, input := range []string{"", "abc", "1,5", "NaN", "inf", "1e99"} {
		t.Run(input, func(t *testing.T) {
			s, _ := newSession(t, &fakePicker{})
			n := addModel(t, s, "a.glb")
			n.Position = math.V3(1, 1, 1)

			s.Form.MoveY = input
			err := s.ApplyMove()
			assert.ErrorIs(t, err, ErrInvalidNumber)
			assert.Equal(t, math.V3(1, 1, 1), n.Position)
			assert.Contains(t, s.Status(), "invalid number")
			assert.True(t, s.StatusIsError())

			s.Form.Scale = input
			assert.ErrorIs(t, s.ApplyScale(), ErrInvalidNumber)
			assert.Equal(t, math.Splat(1), n.Scale)
		})
	}
}

func TestImportScenario(t *testing.T) {
	dir := t.TempDir()
	picker := &fakePicker{open: writeModel(t, dir)}
	s, notifier := newSession(t, picker)

	require.NoError(t, s.RequestImport())
	settle(t, s)

	require.Len(t, s.Scene.Editable(), 1)
	n := s.Selection.Node()
	require.NotNil(t, n)
	assert.Equal(t, "model", n.Name)
	assert.Equal(t, math.Vec3{}, n.Position)
	assert.Empty(t, notifier.errors)

	s.Form.MoveX, s.Form.MoveY, s.Form.MoveZ = "3", "1", "4"
	require.NoError(t, s.ApplyMove())
	assert.Equal(t, math.V3(3, 1, 4), n.Position)

	s.Form.RotateX, s.Form.RotateY, s.Form.RotateZ = "90", "0", "0"
	require.NoError(t, s.ApplyRotate())
	assert.InDelta(t, stdmath.Pi/2, n.Rotation.X, 1e-6)
	assert.Equal(t, float32(0), n.Rotation.Y)
	assert.Equal(t, float32(0), n.Rotation.Z)

	s.Form.Scale = "200"
	require.NoError(t, s.ApplyScale())
	assert.Equal(t, math.Splat(2), n.Scale)
}

func TestRepeatedImportsAddNodes(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	first := addModel(t, s, "a.glb")
	second := addModel(t, s, "a.glb")

	assert.Len(t, s.Scene.Editable(), 2)
	assert.NotEqual(t, first.UUID, second.UUID)
	assert.Same(t, second, s.Selection.Node())

	s.Scene.Remove(second)
	assert.Nil(t, s.Selected())
}

func TestImportFailureLeavesSceneUntouched(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.glb")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not a model"), 0644))
	broken := filepath.Join(dir, "broken.gltf")
	require.NoError(t, os.WriteFile(broken, []byte(brokenGLTF), 0644))

	for name, path := range map[string]string{
		"parse":     bad,
		"malformed": broken,
		"read":      filepath.Join(dir, "missing.glb"),
	} {
		t.Run(name, func(t *testing.T) {
			s, notifier := newSession(t, &fakePicker{open: path})
			existing := addModel(t, s, "keep.glb")

			require.NoError(t, s.RequestImport())
			settle(t, s)

			assert.Equal(t, []*scene.Node{existing}, s.Scene.Editable())
			assert.Same(t, existing, s.Selection.Node())
			require.Len(t, notifier.errors, 1)
			assert.True(t, strings.HasPrefix(s.Status(), "Import failed"))
			assert.True(t, s.StatusIsError())
		})
	}
}

// brokenGLTF decodes as JSON but points at an accessor that does not exist.
const brokenGLTF = `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":7}}]}],"nodes":[{"mesh":0}]}`

func TestImportBytesRejectsMalformedModel(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	existing := addModel(t, s, "keep.glb")

	var (
		n   *scene.Node
		err error
	)
	require.NotPanics(t, func() {
		n, err = s.ImportBytes("broken.gltf", []byte(brokenGLTF), nil)
	})
	require.ErrorIs(t, err, formats.ErrMalformed)
	assert.Nil(t, n)
	assert.Equal(t, []*scene.Node{existing}, s.Scene.Editable())
	assert.Same(t, existing, s.Selection.Node())
}

func TestDialogCancelIsNotAnError(t *testing.T) {
	s, notifier := newSession(t, &fakePicker{err: fileio.ErrCancelled})

	require.NoError(t, s.RequestImport())
	settle(t, s)
	require.NoError(t, s.RequestLoad())
	settle(t, s)

	assert.Empty(t, notifier.errors)
	assert.Equal(t, "Cancelled", s.Status())
	assert.False(t, s.StatusIsError())
	assert.False(t, s.Busy())
}

func TestDialogFailureIsReported(t *testing.T) {
	s, notifier := newSession(t, &fakePicker{err: errors.New("no display")})

	require.NoError(t, s.RequestSave())
	settle(t, s)
	assert.Len(t, notifier.errors, 1)
}

func TestBusyRejectsSecondRequest(t *testing.T) {
	picker := &fakePicker{err: fileio.ErrCancelled, release: make(chan struct{})}
	s, _ := newSession(t, picker)

	require.NoError(t, s.RequestImport())
	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.RequestImport(), ErrBusy)
	assert.ErrorIs(t, s.RequestLoad(), ErrBusy)
	assert.ErrorIs(t, s.RequestSave(), ErrBusy)
	assert.Contains(t, s.Status(), "Busy")

	close(picker.release)
	settle(t, s)
	assert.False(t, s.Busy())
	require.NoError(t, s.RequestLoad())
	settle(t, s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	a := addModel(t, s, "a.glb")
	b := addModel(t, s, "b.glb")
	a.Position = math.V3(3, 1, 4)
	b.Rotation = math.V3(stdmath.Pi/2, 0, 0)
	b.Scale = math.Splat(2)

	var buf bytes.Buffer
	count, err := s.SaveTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	fresh, _ := newSession(t, &fakePicker{})
	fixed := fresh.Scene.FixedNodes()
	loaded, err := fresh.LoadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	got := fresh.Scene.Editable()
	require.Len(t, got, 2)
	assert.Equal(t, fixed, fresh.Scene.FixedNodes())
	assert.InDelta(t, 3, got[0].Position.X, 1e-5)
	assert.InDelta(t, 4, got[0].Position.Z, 1e-5)
	assert.InDelta(t, stdmath.Pi/2, got[1].Rotation.X, 1e-5)
	assert.InDelta(t, 2, got[1].Scale.Y, 1e-5)
	assert.Same(t, got[1], fresh.Selection.Node(), "last loaded node is selected")
}

func TestLoadReplacesContent(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	old := addModel(t, s, "old.glb")
	fixed := s.Scene.FixedNodes()

	_, err := s.LoadFrom(strings.NewReader("[]"))
	require.NoError(t, err)

	assert.Empty(t, s.Scene.Editable())
	assert.Equal(t, fixed, s.Scene.FixedNodes())
	assert.Nil(t, s.Selection.Node())
	assert.False(t, s.Scene.Contains(old))
}

func TestLoadFailureLeavesSceneUntouched(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	keep := addModel(t, s, "keep.glb")
	before := s.Scene.Children()

	_, err := s.LoadFrom(strings.NewReader(`[{"metadata":{},"object":{"uuid":"x","type":"Mesh","geometry":"gone"}}]`))
	require.Error(t, err)

	assert.Equal(t, before, s.Scene.Children())
	assert.Same(t, keep, s.Selection.Node())
}

func TestSaveAndLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "scene.json")

	s, notifier := newSession(t, &fakePicker{save: path, open: path})
	addModel(t, s, "a.glb")

	require.NoError(t, s.RequestSave())
	settle(t, s)
	assert.Contains(t, s.Status(), "Saved 1 objects")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("[{")))

	fresh, freshNotifier := newSession(t, &fakePicker{open: path})
	require.NoError(t, fresh.RequestLoad())
	settle(t, fresh)

	assert.Len(t, fresh.Scene.Editable(), 1)
	assert.Equal(t, []string{LoadedMessage}, freshNotifier.infos)
	assert.Empty(t, notifier.errors)
}

func TestLoadFileMissing(t *testing.T) {
	s, notifier := newSession(t, &fakePicker{})
	require.NoError(t, s.LoadFile(filepath.Join(t.TempDir(), "nope.json")))
	settle(t, s)

	assert.Len(t, notifier.errors, 1)
	assert.Empty(t, notifier.infos)
	assert.Empty(t, s.Scene.Editable())
}

func TestImportFile(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	require.NoError(t, s.ImportFile(writeModel(t, t.TempDir())))
	settle(t, s)
	assert.Len(t, s.Scene.Editable(), 1)
}

func TestSelect(t *testing.T) {
	s, _ := newSession(t, &fakePicker{})
	n := addModel(t, s, "crate.glb")

	s.Select(nil)
	assert.Equal(t, "none", s.SelectionName())

	s.Select(n)
	assert.Equal(t, "crate", s.SelectionName())
	assert.Equal(t, "Selected crate", s.Status())
}
