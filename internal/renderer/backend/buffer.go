package backend

import (
	"sync"

	"github.com/dshills/arbor/internal/renderer/core"
)

// ScreenBuffer provides double-buffered rendering with change tracking.
// It maintains two buffers: front (displayed) and back (drawing).
// On sync, it computes the diff and only updates changed cells.
type ScreenBuffer struct {
	width, height int
	front         [][]core.Cell
	back          [][]core.Cell
	fullRedraw    bool
}

// NewScreenBuffer creates a screen buffer with the given dimensions.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	sb := &ScreenBuffer{width: width, height: height, fullRedraw: true}
	sb.allocate()
	return sb
}

func (sb *ScreenBuffer) allocate() {
	sb.front = newGrid(sb.width, sb.height)
	sb.back = newGrid(sb.width, sb.height)
}

// Resize resizes the buffer, preserving content where possible.
func (sb *ScreenBuffer) Resize(width, height int) {
	if width == sb.width && height == sb.height {
		return
	}
	oldBack := sb.back
	copyWidth := min(sb.width, width)
	copyHeight := min(sb.height, height)

	sb.width = width
	sb.height = height
	sb.allocate()
	for y := 0; y < copyHeight; y++ {
		copy(sb.back[y][:copyWidth], oldBack[y][:copyWidth])
	}
	sb.fullRedraw = true
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() (width, height int) {
	return sb.width, sb.height
}

// SetCell sets a cell in the back buffer.
func (sb *ScreenBuffer) SetCell(x, y int, cell core.Cell) {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return
	}
	sb.back[y][x] = cell
}

// GetCell returns a cell from the back buffer.
func (sb *ScreenBuffer) GetCell(x, y int) core.Cell {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return core.EmptyCell()
	}
	return sb.back[y][x]
}

// Clear clears the back buffer with empty cells.
func (sb *ScreenBuffer) Clear() {
	empty := core.EmptyCell()
	for y := range sb.back {
		for x := range sb.back[y] {
			sb.back[y][x] = empty
		}
	}
}

// SetLine writes cells starting at (x, y) and returns how many columns it
// used. A wide cell that would straddle the right edge is not written.
func (sb *ScreenBuffer) SetLine(x, y int, cells []core.Cell) int {
	if y < 0 || y >= sb.height {
		return 0
	}
	col := x
	for _, cell := range cells {
		if col >= sb.width || (cell.Width == 2 && col+1 >= sb.width) {
			break
		}
		if col >= 0 {
			sb.back[y][col] = cell
		}
		col++
	}
	return col - x
}

// DiffChange represents a cell change for synchronization.
type DiffChange struct {
	X, Y int
	Cell core.Cell
}

// ComputeDiff returns the cells that differ between the back and front
// buffers, or every cell after a resize or MarkFullRedraw.
func (sb *ScreenBuffer) ComputeDiff() []DiffChange {
	var changes []DiffChange
	for y := 0; y < sb.height; y++ {
		for x := 0; x < sb.width; x++ {
			if sb.fullRedraw || !sb.back[y][x].Equals(sb.front[y][x]) {
				changes = append(changes, DiffChange{X: x, Y: y, Cell: sb.back[y][x]})
			}
		}
	}
	return changes
}

// Sync copies the back buffer to the front buffer.
// Call this after applying changes to the backend.
func (sb *ScreenBuffer) Sync() {
	for y := range sb.back {
		copy(sb.front[y], sb.back[y])
	}
	sb.fullRedraw = false
}

// MarkFullRedraw forces a complete redraw on next sync.
func (sb *ScreenBuffer) MarkFullRedraw() {
	sb.fullRedraw = true
}

// BufferedBackend wraps a Backend with double-buffered rendering. It is
// safe for concurrent use, so a resize arriving on the event goroutine
// does not race with drawing.
type BufferedBackend struct {
	mu      sync.Mutex
	backend Backend
	buffer  *ScreenBuffer
	flushed int
}

// NewBufferedBackend creates a buffered wrapper around a backend.
func NewBufferedBackend(backend Backend) *BufferedBackend {
	width, height := backend.Size()
	return &BufferedBackend{
		backend: backend,
		buffer:  NewScreenBuffer(width, height),
	}
}

func (b *BufferedBackend) Init() error {
	if err := b.backend.Init(); err != nil {
		return err
	}
	b.mu.Lock()
	b.buffer.Resize(b.backend.Size())
	b.mu.Unlock()
	b.OnResize(nil)
	return nil
}

func (b *BufferedBackend) Shutdown() {
	b.backend.Shutdown()
}

func (b *BufferedBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Size()
}

// OnResize resizes the buffer and then calls callback, if any.
func (b *BufferedBackend) OnResize(callback func(width, height int)) {
	b.backend.OnResize(func(w, h int) {
		b.mu.Lock()
		b.buffer.Resize(w, h)
		b.mu.Unlock()
		if callback != nil {
			callback(w, h)
		}
	})
}

func (b *BufferedBackend) SetCell(x, y int, cell core.Cell) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer.SetCell(x, y, cell)
}

func (b *BufferedBackend) GetCell(x, y int) core.Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.GetCell(x, y)
}

func (b *BufferedBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer.Clear()
}

// Show applies only the changed cells to the wrapped backend.
func (b *BufferedBackend) Show() {
	b.mu.Lock()
	defer b.mu.Unlock()
	changes := b.buffer.ComputeDiff()
	for _, ch := range changes {
		b.backend.SetCell(ch.X, ch.Y, ch.Cell)
	}
	b.buffer.Sync()
	b.backend.Show()
	b.flushed = len(changes)
}

func (b *BufferedBackend) PollEvent() Event {
	return b.backend.PollEvent()
}

// SetLine writes a row of cells into the back buffer.
func (b *BufferedBackend) SetLine(x, y int, cells []core.Cell) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.SetLine(x, y, cells)
}

// Flushed returns how many cells the last Show sent to the wrapped backend.
func (b *BufferedBackend) Flushed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed
}

// MarkFullRedraw forces a complete redraw.
func (b *BufferedBackend) MarkFullRedraw() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer.MarkFullRedraw()
}
