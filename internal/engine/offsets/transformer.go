// Package offsets converts between line/character positions and flat byte
// offsets for a text buffer, and applies coordinate-addressed edits by
// turning them into patches.
//
// Lines are split on "\n", "\r\n" and "\r". Characters are byte columns
// within a line. Lookups never fail: out of range positions are clamped to
// the nearest valid location.
//
// A Transformer is not safe for concurrent mutation; callers serialize Apply
// against each instance.
package offsets

import (
	"fmt"
	"sort"

	"github.com/dshills/contextview/internal/engine/patch"
)

// Position is a zero-based line and byte column.
type Position struct {
	Line      int
	Character int
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before returns true if p comes before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is a half-open span of positions [Start, End).
type Range struct {
	Start Position
	End   Position
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// Edit replaces the text in Range with NewText.
type Edit struct {
	Range   Range
	NewText string
}

// lineInfo stores one line of the buffer.
type lineInfo struct {
	offset  int // Byte offset of line start
	length  int // Length in bytes, without terminator
	termLen int // Length of the terminator (0, 1 or 2)
}

// Transformer maps positions to offsets over a text snapshot.
type Transformer struct {
	text  string
	lines []lineInfo
}

// New creates a transformer for text.
func New(text string) *Transformer {
	t := &Transformer{}
	t.reset(text)
	return t
}

// reset replaces the buffer and rebuilds the line index.
func (t *Transformer) reset(text string) {
	t.text = text
	t.lines = t.lines[:0]

	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			t.lines = append(t.lines, lineInfo{offset: start, length: i - start, termLen: 1})
			start = i + 1
		case '\r':
			term := 1
			if i+1 < len(text) && text[i+1] == '\n' {
				term = 2
			}
			t.lines = append(t.lines, lineInfo{offset: start, length: i - start, termLen: term})
			i += term - 1
			start = i + 1
		}
	}
	// The last line has no terminator and may be empty.
	t.lines = append(t.lines, lineInfo{offset: start, length: len(text) - start})
}

// Text returns the current buffer content.
func (t *Transformer) Text() string {
	return t.text
}

// Len returns the buffer length in bytes.
func (t *Transformer) Len() int {
	return len(t.text)
}

// LineCount returns the number of lines. An empty buffer has one line.
func (t *Transformer) LineCount() int {
	return len(t.lines)
}

// Line returns the content of line n without its terminator, or "" if n is
// out of range.
func (t *Transformer) Line(n int) string {
	if n < 0 || n >= len(t.lines) {
		return ""
	}
	l := t.lines[n]
	return t.text[l.offset : l.offset+l.length]
}

// ValidatePosition clamps pos into the buffer. A line past the end maps to
// the end of the last line; a character past the end of its line maps to
// the end of that line.
func (t *Transformer) ValidatePosition(pos Position) Position {
	if pos.Line < 0 {
		return Position{}
	}
	if pos.Line >= len(t.lines) {
		last := len(t.lines) - 1
		return Position{Line: last, Character: t.lines[last].length}
	}
	ch := pos.Character
	if ch < 0 {
		ch = 0
	}
	if n := t.lines[pos.Line].length; ch > n {
		ch = n
	}
	return Position{Line: pos.Line, Character: ch}
}

// ValidateRange clamps both ends of r. An inverted range collapses to its
// start.
func (t *Transformer) ValidateRange(r Range) Range {
	start := t.ValidatePosition(r.Start)
	end := t.ValidatePosition(r.End)
	if end.Before(start) {
		end = start
	}
	return Range{Start: start, End: end}
}

// Offset converts pos to a byte offset, clamping it first.
func (t *Transformer) Offset(pos Position) int {
	pos = t.ValidatePosition(pos)
	return t.lines[pos.Line].offset + pos.Character
}

// Position converts a byte offset to a position. Offsets are clamped to the
// buffer; an offset inside a line terminator maps to the end of that line.
func (t *Transformer) Position(offset int) Position {
	if offset <= 0 {
		return Position{}
	}
	if offset > len(t.text) {
		offset = len(t.text)
	}
	// Last line whose start is at or before offset.
	line := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i].offset > offset
	}) - 1
	ch := offset - t.lines[line].offset
	if ch > t.lines[line].length {
		ch = t.lines[line].length
	}
	return Position{Line: line, Character: ch}
}

// OffsetRange converts r to a half-open byte range.
func (t *Transformer) OffsetRange(r Range) patch.Range {
	r = t.ValidateRange(r)
	return patch.NewRange(t.Offset(r.Start), t.Offset(r.End))
}

// Range converts a half-open byte range to positions.
func (t *Transformer) Range(r patch.Range) Range {
	return Range{Start: t.Position(r.Start), End: t.Position(r.End)}
}

// ToPatch converts a batch of edits, all addressed against the current
// buffer, into a single patch. Each endpoint is clamped on its own; inverted
// and overlapping edits are rejected by patch construction.
func (t *Transformer) ToPatch(edits []Edit) (patch.Patch, error) {
	reps := make([]patch.Replacement, len(edits))
	for i, e := range edits {
		r := patch.NewRange(t.Offset(e.Range.Start), t.Offset(e.Range.End))
		reps[i] = patch.Replacement{Range: r, NewText: e.NewText}
	}
	return patch.New(reps...)
}

// Apply applies p to the buffer and rebuilds the line index.
// The buffer is unchanged if p does not fit.
func (t *Transformer) Apply(p patch.Patch) error {
	text, err := p.Apply(t.text)
	if err != nil {
		return err
	}
	t.reset(text)
	return nil
}

// ApplyEdits converts edits with ToPatch and applies the result.
func (t *Transformer) ApplyEdits(edits []Edit) (patch.Patch, error) {
	p, err := t.ToPatch(edits)
	if err != nil {
		return patch.Patch{}, err
	}
	if err := t.Apply(p); err != nil {
		return patch.Patch{}, err
	}
	return p, nil
}
