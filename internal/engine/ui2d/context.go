package ui2d

import "strings"

// Drawer is the drawing surface a Context lays widgets out on.
type Drawer interface {
	Begin()
	End()
	Resize(width, height int)
	GetScreenSize() (int, int)
	DrawRect(x, y, width, height float32, color Color)
	DrawRectOutline(x, y, width, height, thickness float32, color Color)
	DrawPanel(x, y, width, height float32, bg, border Color)
	DrawText(x, y float32, text string, scale float32, color Color)
	MeasureText(text string, scale float32) (float32, float32)
}

// Layout metrics.
const (
	textScale     = float32(1)
	titleBarH     = float32(22)
	padding       = float32(8)
	spacing       = float32(4)
	defaultRowH   = float32(24)
	defaultWinH   = float32(200)
	numberCharset = "0123456789.-+eE"
)

// Context is the main UI context that manages rendering and input.
type Context struct {
	renderer Drawer
	input    *InputState

	// Active/hot widget tracking for interaction
	hotWidget    string
	activeWidget string
	focusWidget  string // text input receiving keys

	windows map[string]*WindowState

	currentWindow *WindowState
	mouseOverUI   bool

	// Layout state
	cursorX float32
	cursorY float32
	rowH    float32
}

// WindowState holds state for a UI window.
type WindowState struct {
	ID     string
	X, Y   float32
	W, H   float32
	Open   bool
	Moving bool

	autoHeight bool
}

// NewContext creates a UI context drawing on d.
func NewContext(d Drawer) *Context {
	return &Context{
		renderer: d,
		input:    &InputState{},
		windows:  make(map[string]*WindowState),
	}
}

// Resize updates the screen size.
func (c *Context) Resize(width, height int) {
	c.renderer.Resize(width, height)
}

// Input returns the input state for modification.
func (c *Context) Input() *InputState {
	return c.input
}

// Begin starts a new UI frame.
func (c *Context) Begin() {
	c.input.Update()
	c.hotWidget = ""
	c.mouseOverUI = false
	c.renderer.Begin()
}

// End finishes the UI frame.
func (c *Context) End() {
	c.renderer.End()
	c.input.EndFrame()
}

// WantsMouse reports whether the last frame's pointer belongs to the UI.
// Valid after the windows of the frame have been drawn.
func (c *Context) WantsMouse() bool {
	if c.mouseOverUI {
		return true
	}
	for _, ws := range c.windows {
		if ws.Moving {
			return true
		}
	}
	return false
}

// WantsKeyboard reports whether a text input has focus.
func (c *Context) WantsKeyboard() bool {
	return c.focusWidget != ""
}

// BeginWindow starts a window. The first call places it at x, y; later
// calls keep wherever the user dragged it. A zero height sizes the window
// to its content from the previous frame.
// Returns false if the window is closed.
func (c *Context) BeginWindow(id string, x, y, w, h float32, title string) bool {
	ws, ok := c.windows[id]
	if !ok {
		ws = &WindowState{ID: id, X: x, Y: y, W: w, H: h, Open: true, autoHeight: h == 0}
		if ws.autoHeight {
			ws.H = defaultWinH
		}
		c.windows[id] = ws
	}
	if !ws.Open {
		return false
	}

	c.currentWindow = ws

	// Drag from the frame after the press so the press itself never moves it
	if ws.Moving && c.input.MouseLeftDown {
		ws.X += c.input.MouseDeltaX
		ws.Y += c.input.MouseDeltaY
	}
	titleBar := Rect{ws.X, ws.Y, ws.W, titleBarH}
	if c.input.MouseLeftPressed && titleBar.Contains(c.input.MouseX, c.input.MouseY) {
		ws.Moving = true
		c.activeWidget = id + "_titlebar"
	}
	if c.input.MouseLeftReleased || !c.input.MouseLeftDown {
		ws.Moving = false
		if c.activeWidget == id+"_titlebar" {
			c.activeWidget = ""
		}
	}
	c.keepOnScreen(ws)

	if (Rect{ws.X, ws.Y, ws.W, ws.H}).Contains(c.input.MouseX, c.input.MouseY) {
		c.mouseOverUI = true
	}

	c.renderer.DrawPanel(ws.X, ws.Y, ws.W, ws.H, ColorPanelBg, ColorPanelBorder)
	c.renderer.DrawRect(ws.X+1, ws.Y+1, ws.W-2, titleBarH-1, ColorButtonNormal)
	_, textH := c.renderer.MeasureText(title, textScale)
	c.renderer.DrawText(ws.X+padding, ws.Y+(titleBarH-textH)/2, title, textScale, ColorText)

	c.cursorX = ws.X + padding
	c.cursorY = ws.Y + titleBarH + padding
	c.rowH = 0

	return true
}

// keepOnScreen stops a window's title bar from leaving the screen.
func (c *Context) keepOnScreen(ws *WindowState) {
	sw, sh := c.renderer.GetScreenSize()
	if sw <= 0 || sh <= 0 {
		return
	}
	ws.X = min(max(ws.X, titleBarH-ws.W), float32(sw)-titleBarH)
	ws.Y = min(max(ws.Y, 0), float32(sh)-titleBarH)
}

// EndWindow ends the current window.
func (c *Context) EndWindow() {
	ws := c.currentWindow
	if ws != nil && ws.autoHeight {
		ws.H = c.cursorY + c.rowH + padding - ws.Y
	}
	c.currentWindow = nil
}

// Window returns the state of a window, or nil if it was never drawn.
func (c *Context) Window(id string) *WindowState {
	return c.windows[id]
}

// Row starts a new row with the given height.
func (c *Context) Row(height float32) {
	if c.currentWindow == nil {
		return
	}
	c.cursorX = c.currentWindow.X + padding
	if c.rowH > 0 {
		c.cursorY += c.rowH + spacing
	}
	c.rowH = height
}

// widgetRect reserves space on the current row.
func (c *Context) widgetRect(width float32) Rect {
	h := c.rowH
	if h == 0 {
		h = defaultRowH
		c.rowH = h
	}
	if width == 0 {
		width = c.currentWindow.X + c.currentWindow.W - padding - c.cursorX
	}
	r := Rect{c.cursorX, c.cursorY, width, h}
	c.cursorX += width + spacing
	return r
}

// Button draws a button and returns true if clicked.
func (c *Context) Button(id string, width float32, label string) bool {
	if c.currentWindow == nil {
		return false
	}

	fullID := c.currentWindow.ID + "_" + id
	rect := c.widgetRect(width)

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	clicked := false

	if hovered {
		c.hotWidget = fullID
		// Click on press; consume the event so only one button gets it
		if c.input.MouseLeftPressed || c.input.MouseLeftClicked {
			c.activeWidget = fullID
			c.focusWidget = ""
			clicked = true
			c.input.MouseLeftPressed = false
			c.input.MouseLeftClicked = false
		}
	}

	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		c.activeWidget = ""
	}

	color := ColorButtonNormal
	if c.activeWidget == fullID {
		color = ColorButtonActive
	} else if hovered {
		color = ColorButtonHover
	}

	c.renderer.DrawRect(rect.X, rect.Y, rect.W, rect.H, color)
	c.renderer.DrawRectOutline(rect.X, rect.Y, rect.W, rect.H, 1, ColorPanelBorder)
	c.drawCentered(rect, label, ColorText)

	return clicked
}

// ButtonDisabled draws a button that ignores input.
func (c *Context) ButtonDisabled(id string, width float32, label string) {
	if c.currentWindow == nil {
		return
	}
	rect := c.widgetRect(width)
	c.renderer.DrawRect(rect.X, rect.Y, rect.W, rect.H, ColorButtonNormal.Darken(0.3))
	c.renderer.DrawRectOutline(rect.X, rect.Y, rect.W, rect.H, 1, ColorPanelBorder.Darken(0.3))
	c.drawCentered(rect, label, ColorTextDim)
}

func (c *Context) drawCentered(rect Rect, label string, color Color) {
	textW, textH := c.renderer.MeasureText(label, textScale)
	c.renderer.DrawText(rect.X+(rect.W-textW)/2, rect.Y+(rect.H-textH)/2, label, textScale, color)
}

// Label draws a text label.
func (c *Context) Label(text string) {
	c.LabelColored(text, ColorText)
}

// LabelColored draws a text label with a specific color.
func (c *Context) LabelColored(text string, color Color) {
	if c.currentWindow == nil {
		return
	}
	w, textH := c.renderer.MeasureText(text, textScale)
	y := c.cursorY
	if c.rowH > textH {
		y += (c.rowH - textH) / 2
	}
	c.renderer.DrawText(c.cursorX, y, text, textScale, color)
	c.cursorX += w + spacing
}

// LabelWrapped draws text broken at spaces so each line fits the window.
// Lines after the first start new rows.
func (c *Context) LabelWrapped(text string, color Color) {
	if c.currentWindow == nil {
		return
	}
	maxW := c.currentWindow.X + c.currentWindow.W - padding - c.cursorX
	_, lineH := c.renderer.MeasureText(text, textScale)
	for i, line := range c.wrap(text, maxW) {
		if i > 0 {
			c.Row(lineH)
		}
		c.LabelColored(line, color)
	}
}

// wrap splits text into lines no wider than maxW. A single word wider
// than maxW gets a line of its own.
func (c *Context) wrap(text string, maxW float32) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		next := word
		if line != "" {
			next = line + " " + word
		}
		if w, _ := c.renderer.MeasureText(next, textScale); w > maxW && line != "" {
			lines = append(lines, line)
			line = word
			continue
		}
		line = next
	}
	if line != "" || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// TextInput draws a text input field.
// Returns (current value, changed, submitted).
func (c *Context) TextInput(id string, width float32, value string) (string, bool, bool) {
	return c.textInput(id, width, value, "")
}

// NumberInput is a TextInput that only accepts characters of a decimal
// number. The value is still a string; parsing is up to the caller.
func (c *Context) NumberInput(id string, width float32, value string) (string, bool, bool) {
	return c.textInput(id, width, value, numberCharset)
}

func (c *Context) textInput(id string, width float32, value, allowed string) (string, bool, bool) {
	if c.currentWindow == nil {
		return value, false, false
	}

	fullID := c.currentWindow.ID + "_" + id
	rect := c.widgetRect(width)

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	if c.input.MouseLeftPressed {
		if hovered {
			c.focusWidget = fullID
		} else if c.focusWidget == fullID {
			c.focusWidget = ""
		}
	}

	focused := c.focusWidget == fullID
	changed := false
	submitted := false

	if focused {
		if typed := filterRunes(c.input.TextInput, allowed); typed != "" {
			value += typed
			changed = true
		}
		if c.input.KeyBackspacePressed && len(value) > 0 {
			r := []rune(value)
			value = string(r[:len(r)-1])
			changed = true
		}
		if c.input.KeyEnterPressed {
			submitted = true
		}
		if c.input.KeyEscapePressed {
			c.focusWidget = ""
		}
	}

	c.renderer.DrawRect(rect.X, rect.Y, rect.W, rect.H, ColorInputBg)
	borderColor := ColorInputBorder
	if focused {
		borderColor = ColorHighlight
	}
	c.renderer.DrawRectOutline(rect.X, rect.Y, rect.W, rect.H, 1, borderColor)

	textW, textH := c.renderer.MeasureText(value, textScale)
	textY := rect.Y + (rect.H-textH)/2
	c.renderer.DrawText(rect.X+4, textY, value, textScale, ColorText)

	if focused {
		c.renderer.DrawRect(rect.X+4+textW, rect.Y+4, 2, rect.H-8, ColorText)
	}

	return value, changed, submitted
}

// filterRunes keeps the runes of s found in allowed; an empty allowed set
// keeps printable text.
func filterRunes(s, allowed string) string {
	if s == "" {
		return ""
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r < ' ' {
			continue
		}
		if allowed != "" && !containsRune(allowed, r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// Spacer adds vertical space.
func (c *Context) Spacer(height float32) {
	c.cursorY += height
}

// Separator draws a horizontal separator line.
func (c *Context) Separator() {
	if c.currentWindow == nil {
		return
	}
	c.cursorY += c.rowH + spacing
	c.rowH = 0
	x := c.currentWindow.X + padding
	w := c.currentWindow.W - 2*padding
	c.renderer.DrawRect(x, c.cursorY, w, 1, ColorPanelBorder)
	c.cursorY += padding
	c.cursorX = x
}

// GetScreenSize returns the current screen dimensions.
func (c *Context) GetScreenSize() (float32, float32) {
	w, h := c.renderer.GetScreenSize()
	return float32(w), float32(h)
}

// Rect is a simple rectangle struct.
type Rect struct {
	X, Y, W, H float32
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
