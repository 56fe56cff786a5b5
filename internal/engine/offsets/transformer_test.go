package offsets

import (
	"errors"
	"testing"

	"github.com/dshills/contextview/internal/engine/patch"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		lines []string
	}{
		{"empty", "", []string{""}},
		{"single line", "hello", []string{"hello"}},
		{"trailing newline", "a\n", []string{"a", ""}},
		{"lf", "a\nbc\nd", []string{"a", "bc", "d"}},
		{"crlf", "a\r\nbc\r\nd", []string{"a", "bc", "d"}},
		{"cr", "a\rbc\rd", []string{"a", "bc", "d"}},
		{"mixed", "a\r\nb\nc\rd", []string{"a", "b", "c", "d"}},
		{"blank lines", "\n\n", []string{"", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.text)
			if tr.LineCount() != len(tt.lines) {
				t.Fatalf("LineCount = %d, want %d", tr.LineCount(), len(tt.lines))
			}
			for i, want := range tt.lines {
				if got := tr.Line(i); got != want {
					t.Errorf("Line(%d) = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestOffsetAndPosition(t *testing.T) {
	tr := New("ab\r\ncde\nf")

	tests := []struct {
		pos    Position
		offset int
	}{
		{Position{0, 0}, 0},
		{Position{0, 2}, 2},
		{Position{1, 0}, 4},
		{Position{1, 3}, 7},
		{Position{2, 0}, 8},
		{Position{2, 1}, 9},
	}
	for _, tt := range tests {
		if got := tr.Offset(tt.pos); got != tt.offset {
			t.Errorf("Offset(%v) = %d, want %d", tt.pos, got, tt.offset)
		}
		if got := tr.Position(tt.offset); got != tt.pos {
			t.Errorf("Position(%d) = %v, want %v", tt.offset, got, tt.pos)
		}
	}

	// Inside the CRLF terminator.
	if got := tr.Position(3); got != (Position{0, 2}) {
		t.Errorf("Position(3) = %v, want 0:2", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tr := New("first line\nsecond\r\n\nlast")
	for off := 0; off <= tr.Len(); off++ {
		pos := tr.Position(off)
		back := tr.Offset(pos)
		// Offsets inside a terminator collapse to the line end.
		if back != off && tr.Text()[back] != '\r' {
			t.Errorf("offset %d -> %v -> %d", off, pos, back)
		}
	}
}

func TestValidatePosition(t *testing.T) {
	tr := New("abc\nde")

	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{"valid", Position{1, 1}, Position{1, 1}},
		{"character past line end", Position{0, 10}, Position{0, 3}},
		{"line past end", Position{5, 0}, Position{1, 2}},
		{"negative line", Position{-1, 3}, Position{0, 0}},
		{"negative character", Position{1, -4}, Position{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.ValidatePosition(tt.in); got != tt.want {
				t.Errorf("ValidatePosition(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	tr := New("abc\nde")

	got := tr.ValidateRange(Range{Start: Position{0, 1}, End: Position{9, 9}})
	want := Range{Start: Position{0, 1}, End: Position{1, 2}}
	if got != want {
		t.Errorf("ValidateRange = %v, want %v", got, want)
	}

	inverted := tr.ValidateRange(Range{Start: Position{1, 1}, End: Position{0, 0}})
	if inverted.Start != inverted.End || inverted.Start != (Position{1, 1}) {
		t.Errorf("inverted range = %v, want empty at 1:1", inverted)
	}
}

func TestOffsetRange(t *testing.T) {
	tr := New("abc\ndef")

	r := tr.OffsetRange(Range{Start: Position{0, 2}, End: Position{1, 1}})
	if r != patch.NewRange(2, 5) {
		t.Errorf("OffsetRange = %v, want [2:5)", r)
	}
	back := tr.Range(r)
	if back.Start != (Position{0, 2}) || back.End != (Position{1, 1}) {
		t.Errorf("Range = %v", back)
	}
}

func TestToPatch(t *testing.T) {
	tr := New("abc\ndef\nghi")

	p, err := tr.ToPatch([]Edit{
		{Range: Range{Start: Position{2, 0}, End: Position{2, 1}}, NewText: "G"},
		{Range: Range{Start: Position{0, 1}, End: Position{0, 2}}, NewText: "B"},
	})
	if err != nil {
		t.Fatalf("ToPatch failed: %v", err)
	}
	want := patch.MustNew(patch.Replace(1, 2, "B"), patch.Replace(8, 9, "G"))
	if !p.Equal(want) {
		t.Errorf("ToPatch = %v, want %v", p, want)
	}

	_, err = tr.ToPatch([]Edit{
		{Range: Range{Start: Position{0, 0}, End: Position{1, 1}}},
		{Range: Range{Start: Position{0, 2}, End: Position{0, 3}}},
	})
	if !errors.Is(err, patch.ErrMalformedPatch) {
		t.Errorf("overlapping edits: expected ErrMalformedPatch, got %v", err)
	}

	_, err = tr.ToPatch([]Edit{
		{Range: Range{Start: Position{1, 2}, End: Position{0, 1}}, NewText: "X"},
	})
	if !errors.Is(err, patch.ErrMalformedPatch) {
		t.Errorf("inverted edit: expected ErrMalformedPatch, got %v", err)
	}

	// Endpoints past the buffer are still clamped one at a time.
	p, err = tr.ToPatch([]Edit{
		{Range: Range{Start: Position{2, 1}, End: Position{9, 99}}, NewText: "!"},
	})
	if err != nil {
		t.Fatalf("ToPatch with clamped end failed: %v", err)
	}
	if want := patch.MustNew(patch.Replace(9, 11, "!")); !p.Equal(want) {
		t.Errorf("ToPatch = %v, want %v", p, want)
	}

	// Insertions at one position keep their order.
	p, err = tr.ToPatch([]Edit{
		{Range: Range{Start: Position{1, 0}, End: Position{1, 0}}, NewText: "a"},
		{Range: Range{Start: Position{1, 0}, End: Position{1, 0}}, NewText: "b"},
	})
	if err != nil {
		t.Fatalf("ToPatch with shared insertion point failed: %v", err)
	}
	if got, _ := p.Apply(tr.Text()); got != "abc\nabdef\nghi" {
		t.Errorf("Apply = %q", got)
	}
}

func TestApply(t *testing.T) {
	tr := New("abc\ndef")

	if err := tr.Apply(patch.MustNew(patch.Replace(3, 4, "\nX\n"))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tr.Text() != "abc\nX\ndef" {
		t.Errorf("Text = %q", tr.Text())
	}
	if tr.LineCount() != 3 || tr.Line(1) != "X" {
		t.Errorf("lines not rebuilt: count=%d line1=%q", tr.LineCount(), tr.Line(1))
	}
	if tr.Offset(Position{2, 0}) != 6 {
		t.Errorf("Offset(2:0) = %d, want 6", tr.Offset(Position{2, 0}))
	}

	err := tr.Apply(patch.MustNew(patch.Delete(5, 50)))
	if !errors.Is(err, patch.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if tr.Text() != "abc\nX\ndef" {
		t.Error("failed Apply must not change the buffer")
	}
}

func TestApplyEdits(t *testing.T) {
	tr := New("hello\nworld")
	p, err := tr.ApplyEdits([]Edit{
		{Range: Range{Start: Position{1, 0}, End: Position{1, 5}}, NewText: "there"},
		{Range: Range{Start: Position{0, 5}, End: Position{0, 5}}, NewText: ","},
	})
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}
	if tr.Text() != "hello,\nthere" {
		t.Errorf("Text = %q", tr.Text())
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 replacements, got %v", p)
	}
}
