// Package backend provides the display surfaces the tree renderer draws on.
package backend

import (
	"strings"

	"github.com/dshills/arbor/internal/renderer/core"
)

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	// EventClosed is returned once the backend has shut down.
	EventClosed
)

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

// Keys the runtime reacts to. Everything else arrives as KeyOther.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyCtrlC
	KeyOther
)

// IsQuit reports whether e asks the program to stop: Escape, Ctrl-C or q.
func (e Event) IsQuit() bool {
	if e.Type == EventClosed {
		return true
	}
	if e.Type != EventKey {
		return false
	}
	return e.Key == KeyEscape || e.Key == KeyCtrlC || (e.Key == KeyRune && e.Rune == 'q')
}

// Backend is a grid of cells shown on some display.
type Backend interface {
	// Init prepares the backend. Must be called before any other method.
	Init() error

	// Shutdown releases backend resources and restores terminal state.
	Shutdown()

	// Size returns the current dimensions.
	Size() (width, height int)

	// OnResize registers a callback for resize events.
	OnResize(callback func(width, height int))

	// SetCell sets a single cell. Positions outside are ignored.
	SetCell(x, y int, cell core.Cell)

	// GetCell returns the cell at the given position, or an empty cell
	// outside.
	GetCell(x, y int) core.Cell

	// Clear resets every cell.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	// PollEvent blocks until the next event.
	PollEvent() Event
}

// NullBackend is an in-memory backend for tests and headless runs.
type NullBackend struct {
	width, height int
	cells         [][]core.Cell
	shows         int
	resizeHandler func(width, height int)
	events        chan Event
	closed        chan struct{}
}

// NewNullBackend creates a null backend with the given dimensions.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
		closed: make(chan struct{}),
	}
}

func (b *NullBackend) Init() error {
	b.cells = newGrid(b.width, b.height)
	return nil
}

func newGrid(width, height int) [][]core.Cell {
	cells := make([][]core.Cell, height)
	for i := range cells {
		cells[i] = make([]core.Cell, width)
		for j := range cells[i] {
			cells[i][j] = core.EmptyCell()
		}
	}
	return cells
}

// Shutdown makes PollEvent return EventClosed. It must be called at most
// once.
func (b *NullBackend) Shutdown() {
	close(b.closed)
}

func (b *NullBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) OnResize(callback func(width, height int)) {
	b.resizeHandler = callback
}

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

func (b *NullBackend) GetCell(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.EmptyCell()
}

func (b *NullBackend) Clear() {
	b.cells = newGrid(b.width, b.height)
}

func (b *NullBackend) Show() {
	b.shows++
}

func (b *NullBackend) PollEvent() Event {
	select {
	case ev := <-b.events:
		return ev
	case <-b.closed:
		return Event{Type: EventClosed}
	}
}

// PostEvent queues an event for PollEvent. Events beyond the queue's
// capacity are dropped.
func (b *NullBackend) PostEvent(event Event) {
	select {
	case b.events <- event:
	default:
	}
}

// Shows returns how many times Show was called.
func (b *NullBackend) Shows() int {
	return b.shows
}

// Lines returns the grid as text, one string per row with trailing spaces
// trimmed.
func (b *NullBackend) Lines() []string {
	lines := make([]string, len(b.cells))
	for y, row := range b.cells {
		lines[y] = strings.TrimRight(core.StringFromCells(row), " ")
	}
	return lines
}

// Resize simulates a terminal resize.
func (b *NullBackend) Resize(width, height int) {
	b.width = width
	b.height = height
	b.cells = newGrid(width, height)
	if b.resizeHandler != nil {
		b.resizeHandler(width, height)
	}
}
