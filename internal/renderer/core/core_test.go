package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lucasb-eyer/go-colorful"
)

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		want    Color
		wantErr bool
	}{
		{"#FF8040", ColorFromRGB(255, 128, 64), false},
		{"#ff8040", ColorFromRGB(255, 128, 64), false},
		{"FF8040", ColorFromRGB(255, 128, 64), false},
		{"#FFF", ColorFromRGB(255, 255, 255), false},
		{"#000", ColorFromRGB(0, 0, 0), false},
		{"invalid", Color{}, true},
		{"#GGG", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ColorFromHex(tt.hex)
		if (err != nil) != tt.wantErr {
			t.Errorf("ColorFromHex(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ColorFromHex(%q) = %v, want %v", tt.hex, got, tt.want)
		}
	}
}

func TestFromColorfulClamps(t *testing.T) {
	got := FromColorful(colorful.Color{R: 1.5, G: -0.2, B: 0.5})
	if got.R != 255 || got.G != 0 || got.Default {
		t.Errorf("FromColorful = %+v, want clamped red and zero green", got)
	}
}

func TestBlend(t *testing.T) {
	white := ColorFromRGB(255, 255, 255)
	black := ColorFromRGB(0, 0, 0)

	if got := white.Blend(black, 0); got != white {
		t.Errorf("blend amount 0 = %v, want white", got)
	}
	if got := white.Blend(black, 1); got != black {
		t.Errorf("blend amount 1 = %v, want black", got)
	}
	mid := white.Blend(black, 0.5)
	if mid.R < 64 || mid.R > 192 || absDiff(mid.R, mid.G) > 1 || absDiff(mid.G, mid.B) > 1 {
		t.Errorf("half blend = %v, want a neutral gray", mid)
	}
	if got := ColorDefault.Blend(black, 0.5); got != black {
		t.Errorf("default blended = %v, want the other color", got)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestColorString(t *testing.T) {
	if got := ColorDefault.String(); got != "default" {
		t.Errorf("String = %q", got)
	}
	if got := ColorFromRGB(255, 0, 16).String(); got != "#FF0010" {
		t.Errorf("String = %q", got)
	}
}

func TestStyle(t *testing.T) {
	s := DefaultStyle().WithForeground(ColorFromRGB(1, 2, 3)).With(AttrBold | AttrDim)
	if !s.Attributes.Has(AttrBold) || !s.Attributes.Has(AttrDim) || s.Attributes.Has(AttrItalic) {
		t.Errorf("attributes = %b", s.Attributes)
	}
	if !s.Background.IsDefault() {
		t.Error("background should stay default")
	}
}

func TestCellsFromString(t *testing.T) {
	style := DefaultStyle()
	cells := CellsFromString("a世e\u0301", style)

	want := []Cell{
		{Rune: 'a', Width: 1, Style: style},
		{Rune: '世', Width: 2, Style: style},
		ContinuationCell(),
		{Rune: 'e', Combining: []rune{'\u0301'}, Width: 1, Style: style},
	}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
	if got := StringFromCells(cells); got != "a世e\u0301" {
		t.Errorf("round trip = %q", got)
	}
	if got := StringWidth("a世e\u0301"); got != 4 {
		t.Errorf("StringWidth = %d, want 4", got)
	}
}

func TestCellsFromStringDropsControls(t *testing.T) {
	if got := StringFromCells(CellsFromString("a\tb", DefaultStyle())); got != "ab" {
		t.Errorf("got %q, want controls dropped", got)
	}
}

func TestCellEquals(t *testing.T) {
	a := Cell{Rune: 'e', Combining: []rune{'\u0301'}, Width: 1, Style: DefaultStyle()}
	b := a
	b.Combining = []rune{'\u0300'}
	if !a.Equals(a) || a.Equals(b) || a.Equals(EmptyCell()) {
		t.Error("Equals should compare rune, combining marks, width and style")
	}
	if !ContinuationCell().IsContinuation() || EmptyCell().IsContinuation() {
		t.Error("IsContinuation mismatch")
	}
}

func TestScreenRect(t *testing.T) {
	r := RectFromSize(1, 2, 3, 4)
	if r.Width() != 4 || r.Height() != 3 {
		t.Errorf("size = %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(2, 1) || r.Contains(6, 1) || r.Contains(2, 4) {
		t.Error("Contains should be half-open")
	}
	if (ScreenRect{Top: 5, Bottom: 2}).Height() != 0 {
		t.Error("inverted rect should have zero height")
	}
}
