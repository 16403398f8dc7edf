package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/assets"
	"github.com/Faultbox/scenedit/internal/fileio"
	"github.com/Faultbox/scenedit/internal/persist"
	"github.com/Faultbox/scenedit/internal/scene"
)

const (
	opImport = "import"
	opSave   = "save"
	opLoad   = "load"
)

// begin marks op as in flight. Only one file operation runs at a time.
func (s *Session) begin(op string) error {
	if s.busy != "" {
		s.log.Debug("request rejected", zap.String("op", op), zap.String("busy", s.busy))
		s.setError(fmt.Sprintf("Busy with %s, try again", s.busy))
		return ErrBusy
	}
	s.busy = op
	return nil
}

func (s *Session) end() {
	s.busy = ""
}

// pick runs the dialog on a goroutine and continues with path on the main thread.
func (s *Session) pick(op string, show func() (string, error), next func(path string)) {
	go func() {
		path, err := show()
		s.dispatcher.Post(func() {
			switch {
			case errors.Is(err, fileio.ErrCancelled):
				s.end()
				s.log.Debug("dialog cancelled", zap.String("op", op))
				s.setStatus("Cancelled")
			case err != nil:
				s.end()
				s.reportError("File dialog failed", err)
			default:
				next(path)
			}
		})
	}()
}

// RequestImport opens the model picker and imports the chosen file.
func (s *Session) RequestImport() error {
	if err := s.begin(opImport); err != nil {
		return err
	}
	s.setStatus("Choose a model...")
	s.pick(opImport, func() (string, error) {
		return s.picker.OpenFile("Add Model", fileio.ModelFilter)
	}, s.readModel)
	return nil
}

// ImportFile imports a model from disk without a dialog.
func (s *Session) ImportFile(path string) error {
	if err := s.begin(opImport); err != nil {
		return err
	}
	s.readModel(path)
	return nil
}

func (s *Session) readModel(path string) {
	s.setStatus("Loading " + baseName(path) + "...")
	fileio.Deliver(s.dispatcher, fileio.ReadAsync(s.ctx, path), func(res fileio.Result) {
		s.end()
		if res.Err != nil {
			s.reportError("Import failed", res.Err)
			return
		}
		resources := assets.ForFile(res.Path)
		defer resources.Close()
		if _, err := s.ImportBytes(res.Path, res.Data, resources); err != nil {
			s.reportError("Import failed", err)
		}
	})
}

// ImportBytes decodes a model, adds it at the origin and selects it. On error
// the scene is unchanged.
func (s *Session) ImportBytes(name string, data []byte, fsys fs.FS) (*scene.Node, error) {
	node, err := s.importer.Import(name, data, fsys)
	if err != nil {
		return nil, err
	}
	s.Scene.Add(node)
	s.Selection.Set(node)
	s.setStatus(fmt.Sprintf("Imported %s (%d meshes)", node.Name, node.MeshCount()))
	return node, nil
}

// RequestSave opens the save picker and writes the scene to the chosen file.
func (s *Session) RequestSave() error {
	if err := s.begin(opSave); err != nil {
		return err
	}
	s.setStatus("Choose where to save...")
	s.pick(opSave, func() (string, error) {
		return s.picker.SaveFile("Save Scene", s.cfg.Editor.SceneFileName, fileio.SceneFilter)
	}, s.writeScene)
	return nil
}

// SaveFile writes the scene to path without a dialog.
func (s *Session) SaveFile(path string) error {
	if err := s.begin(opSave); err != nil {
		return err
	}
	s.writeScene(path)
	return nil
}

func (s *Session) writeScene(path string) {
	var buf bytes.Buffer
	count, err := s.SaveTo(&buf)
	if err != nil {
		s.end()
		s.reportError("Save failed", err)
		return
	}
	fileio.Deliver(s.dispatcher, fileio.WriteAsync(s.ctx, path, buf.Bytes()), func(res fileio.Result) {
		s.end()
		if res.Err != nil {
			s.reportError("Save failed", res.Err)
			return
		}
		s.log.Info("scene saved", zap.String("path", res.Path), zap.Int("objects", count))
		s.setStatus(fmt.Sprintf("Saved %d objects to %s", count, baseName(res.Path)))
	})
}

// SaveTo encodes every non-fixed node to w and returns how many were written.
func (s *Session) SaveTo(w io.Writer) (int, error) {
	return persist.Save(w, s.Scene)
}

// RequestLoad opens the scene picker and replaces the scene content.
func (s *Session) RequestLoad() error {
	if err := s.begin(opLoad); err != nil {
		return err
	}
	s.setStatus("Choose a scene...")
	s.pick(opLoad, func() (string, error) {
		return s.picker.OpenFile("Load Scene", fileio.SceneFilter)
	}, s.readScene)
	return nil
}

// LoadFile loads a scene from disk without a dialog.
func (s *Session) LoadFile(path string) error {
	if err := s.begin(opLoad); err != nil {
		return err
	}
	s.readScene(path)
	return nil
}

func (s *Session) readScene(path string) {
	s.setStatus("Loading " + baseName(path) + "...")
	fileio.Deliver(s.dispatcher, fileio.ReadAsync(s.ctx, path), func(res fileio.Result) {
		s.end()
		if res.Err != nil {
			s.reportError("Load failed", res.Err)
			return
		}
		count, err := s.LoadFrom(bytes.NewReader(res.Data))
		if err != nil {
			s.reportError("Load failed", err)
			return
		}
		s.log.Info("scene loaded", zap.String("path", res.Path), zap.Int("objects", count))
		if s.notifier != nil {
			s.notifier.Info("Load Scene", LoadedMessage)
		}
	})
}

// LoadFrom decodes a scene file and replaces every non-fixed node with its
// content. Decoding finishes before the scene is touched, so on error nothing
// changes. The last loaded node becomes the selection.
func (s *Session) LoadFrom(r io.Reader) (int, error) {
	nodes, err := persist.Load(r)
	if err != nil {
		return 0, err
	}

	s.Scene.ReplaceContent(nodes)
	if len(nodes) > 0 {
		s.Selection.Set(nodes[len(nodes)-1])
	} else {
		s.Selection.Clear()
	}
	s.setStatus(fmt.Sprintf("Loaded %d objects", len(nodes)))
	return len(nodes), nil
}
