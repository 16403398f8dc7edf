// Package fileio runs native file dialogs and file reads off the main thread
// and hands their results back to it.
package fileio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sqweek/dialog"
)

// ErrCancelled is returned when the user dismisses a dialog.
var ErrCancelled = errors.New("dialog cancelled")

// Filter restricts a dialog to files with the given extensions (no dots).
type Filter struct {
	Desc       string
	Extensions []string
}

// Common filters.
var (
	ModelFilter = Filter{Desc: "glTF models", Extensions: []string{"glb", "gltf"}}
	SceneFilter = Filter{Desc: "Scene files", Extensions: []string{"json"}}
)

// Match reports whether path has one of the filter's extensions, ignoring case.
func (f Filter) Match(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	g, err := glob.Compile("*.{" + strings.Join(f.Extensions, ",") + "}")
	if err != nil {
		return false
	}
	return g.Match(strings.ToLower(filepath.Base(path)))
}

// EnsureExt appends the filter's first extension when path matches none.
func (f Filter) EnsureExt(path string) string {
	if f.Match(path) || len(f.Extensions) == 0 {
		return path
	}
	return path + "." + f.Extensions[0]
}

// Picker chooses files. Implementations block until the user answers.
type Picker interface {
	OpenFile(title string, filters ...Filter) (string, error)
	SaveFile(title, defaultName string, filters ...Filter) (string, error)
}

// DialogPicker shows the platform's native file chooser.
type DialogPicker struct {
	StartDir string
}

// OpenFile shows an open dialog.
func (p DialogPicker) OpenFile(title string, filters ...Filter) (string, error) {
	b := p.builder(title, filters)
	path, err := b.Load()
	if err == nil && path == "" {
		return "", ErrCancelled
	}
	return path, mapDialogErr(err)
}

// SaveFile shows a save dialog. defaultName is used when the user picks a
// directory instead of a file.
func (p DialogPicker) SaveFile(title, defaultName string, filters ...Filter) (string, error) {
	path, err := p.builder(title, filters).Save()
	if err != nil {
		return "", mapDialogErr(err)
	}
	if path == "" {
		return "", ErrCancelled
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() && defaultName != "" {
		path = filepath.Join(path, defaultName)
	}
	if len(filters) > 0 {
		path = filters[0].EnsureExt(path)
	}
	return path, nil
}

func (p DialogPicker) builder(title string, filters []Filter) *dialog.FileBuilder {
	b := dialog.File().Title(title)
	for _, f := range filters {
		b = b.Filter(f.Desc, f.Extensions...)
	}
	if p.StartDir != "" {
		b = b.SetStartDir(p.StartDir)
	}
	return b
}

func mapDialogErr(err error) error {
	if errors.Is(err, dialog.ErrCancelled) {
		return ErrCancelled
	}
	return err
}

// Notifier reports outcomes to the user.
type Notifier interface {
	Info(title, msg string)
	Error(title, msg string)
}

// DialogNotifier shows native message boxes.
type DialogNotifier struct{}

// Info shows an informational message box.
func (DialogNotifier) Info(title, msg string) {
	dialog.Message("%s", msg).Title(title).Info()
}

// Error shows an error message box.
func (DialogNotifier) Error(title, msg string) {
	dialog.Message("%s", msg).Title(title).Error()
}
