package backend

import (
	"testing"

	"github.com/dshills/arbor/internal/renderer/core"
)

func TestScreenBufferSetGetCell(t *testing.T) {
	sb := NewScreenBuffer(10, 5)
	cell := styled('A')
	sb.SetCell(3, 2, cell)
	if !sb.GetCell(3, 2).Equals(cell) {
		t.Error("cell not stored")
	}
	sb.SetCell(10, 0, cell)
	if !sb.GetCell(10, 0).Equals(core.EmptyCell()) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestScreenBufferSetLineWide(t *testing.T) {
	sb := NewScreenBuffer(4, 1)
	n := sb.SetLine(1, 0, core.CellsFromString("a世b", core.DefaultStyle()))
	if n != 3 {
		t.Errorf("SetLine used %d columns, want 3", n)
	}
	if sb.GetCell(2, 0).Rune != '世' || !sb.GetCell(3, 0).IsContinuation() {
		t.Error("wide cell should be followed by a continuation cell")
	}

	// A wide cell that would straddle the edge is not written.
	sb.Clear()
	if n := sb.SetLine(3, 0, core.CellsFromString("世", core.DefaultStyle())); n != 0 {
		t.Errorf("SetLine at the edge used %d columns, want 0", n)
	}
}

func TestScreenBufferSetLineClipsLeft(t *testing.T) {
	sb := NewScreenBuffer(4, 1)
	sb.SetLine(-1, 0, core.CellsFromString("abc", core.DefaultStyle()))
	if sb.GetCell(0, 0).Rune != 'b' || sb.GetCell(1, 0).Rune != 'c' {
		t.Errorf("got %q %q, want b c", sb.GetCell(0, 0).Rune, sb.GetCell(1, 0).Rune)
	}
}

func TestScreenBufferResizePreserves(t *testing.T) {
	sb := NewScreenBuffer(10, 10)
	sb.SetCell(2, 2, styled('X'))
	sb.SetCell(8, 8, styled('Y'))
	sb.Resize(5, 5)

	if w, h := sb.Size(); w != 5 || h != 5 {
		t.Errorf("size = (%d, %d)", w, h)
	}
	if sb.GetCell(2, 2).Rune != 'X' {
		t.Error("content inside the new bounds should survive")
	}
	if got := len(sb.ComputeDiff()); got != 25 {
		t.Errorf("diff after resize has %d cells, want a full redraw of 25", got)
	}
}

func TestScreenBufferComputeDiff(t *testing.T) {
	sb := NewScreenBuffer(3, 2)
	if got := len(sb.ComputeDiff()); got != 6 {
		t.Errorf("first diff = %d cells, want 6", got)
	}
	sb.Sync()
	if got := len(sb.ComputeDiff()); got != 0 {
		t.Errorf("diff after sync = %d cells, want 0", got)
	}

	sb.SetCell(1, 1, styled('Z'))
	sb.SetCell(0, 0, core.EmptyCell())
	changes := sb.ComputeDiff()
	if len(changes) != 1 || changes[0].X != 1 || changes[0].Y != 1 {
		t.Errorf("changes = %+v, want only (1,1)", changes)
	}

	sb.Sync()
	sb.MarkFullRedraw()
	if got := len(sb.ComputeDiff()); got != 6 {
		t.Errorf("diff after MarkFullRedraw = %d cells, want 6", got)
	}
}

func TestBufferedBackendMinimalUpdates(t *testing.T) {
	null := NewNullBackend(4, 2)
	b := NewBufferedBackend(null)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	b.SetLine(0, 0, core.CellsFromString("ab", core.DefaultStyle()))
	b.Show()
	if b.Flushed() != 8 {
		t.Errorf("first Show flushed %d cells, want 8", b.Flushed())
	}
	if null.Lines()[0] != "ab" {
		t.Errorf("backend row = %q", null.Lines()[0])
	}

	b.SetLine(0, 0, core.CellsFromString("ac", core.DefaultStyle()))
	b.Show()
	if b.Flushed() != 1 {
		t.Errorf("second Show flushed %d cells, want 1", b.Flushed())
	}
	if null.Lines()[0] != "ac" || null.Shows() != 2 {
		t.Errorf("backend row = %q after %d shows", null.Lines()[0], null.Shows())
	}
}

func TestBufferedBackendResize(t *testing.T) {
	null := NewNullBackend(4, 2)
	b := NewBufferedBackend(null)
	b.Init()

	var got [2]int
	b.OnResize(func(w, h int) { got = [2]int{w, h} })
	null.Resize(6, 3)

	if w, h := b.Size(); w != 6 || h != 3 {
		t.Errorf("buffer size = (%d, %d), want (6, 3)", w, h)
	}
	if got != [2]int{6, 3} {
		t.Errorf("callback got %v", got)
	}
}
