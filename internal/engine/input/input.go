// Package input turns SDL2 events into UI state and editor events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/scenedit/internal/engine/ui2d"
)

// EventType identifies an editor-level event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events, feeding mouse and keyboard state into ui.
// Returns true if the editor should quit.
func (i *Input) Update(ui *ui2d.InputState) bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.Handle(event, ui) {
			quit = true
		}
	}
	return quit
}

// Handle applies a single event. Returns true for quit requests.
func (i *Input) Handle(event sdl.Event, ui *ui2d.InputState) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED || e.Event == sdl.WINDOWEVENT_RESIZED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			break
		}
		switch e.Keysym.Scancode {
		case sdl.SCANCODE_BACKSPACE:
			ui.KeyBackspacePressed = true
		case sdl.SCANCODE_RETURN, sdl.SCANCODE_KP_ENTER:
			ui.KeyEnterPressed = true
		case sdl.SCANCODE_ESCAPE:
			ui.KeyEscapePressed = true
		case sdl.SCANCODE_TAB:
			ui.KeyTabPressed = true
		}
		if e.Repeat == 0 {
			i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
		}

	case *sdl.TextInputEvent:
		ui.TextInput += e.GetText()

	case *sdl.MouseMotionEvent:
		ui.MouseX = float32(e.X)
		ui.MouseY = float32(e.Y)

	case *sdl.MouseButtonEvent:
		ui.MouseX = float32(e.X)
		ui.MouseY = float32(e.Y)
		down := e.Type == sdl.MOUSEBUTTONDOWN
		switch e.Button {
		case sdl.BUTTON_LEFT:
			ui.MouseLeftDown = down
			if down {
				ui.MouseLeftClicked = true
			}
		case sdl.BUTTON_RIGHT:
			ui.MouseRightDown = down
			if down {
				ui.MouseRightClicked = true
			}
		case sdl.BUTTON_MIDDLE:
			ui.MouseMiddleDown = down
		}

	case *sdl.MouseWheelEvent:
		ui.ScrollX += float32(e.X)
		ui.ScrollY += float32(e.Y)
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
