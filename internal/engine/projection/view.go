package projection

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dshills/contextview/internal/engine/patch"
)

// ErrPlaceholderExclusion indicates an exclusion that inserts text instead of
// only removing it. Rebasing over placeholder text is not defined.
var ErrPlaceholderExclusion = errors.New("exclusion carries placeholder text")

// Segment is a kept span of the original text and its place in the
// projected text. Both ranges have the same length.
type Segment struct {
	Original  patch.Range
	Projected patch.Range
}

// View is an immutable projection of an original text with some ranges
// excluded. Views built from equal (original, exclusions) pairs are equal.
type View struct {
	original   string
	exclusions patch.Patch
	segments   []Segment
	text       string
}

// NewView creates a projection of original that omits every range removed
// by exclusions. Exclusions must only delete text and must fit the original.
// Empty exclusions are dropped.
func NewView(original string, exclusions patch.Patch) (*View, error) {
	if !exclusions.IsDeletion() {
		return nil, ErrPlaceholderExclusion
	}
	if end := exclusions.MaxEnd(); end > len(original) {
		return nil, fmt.Errorf("%w: exclusion end %d exceeds length %d", patch.ErrOutOfBounds, end, len(original))
	}

	reps := exclusions.Replacements()
	kept := reps[:0]
	for _, r := range reps {
		if !r.Range.IsEmpty() {
			kept = append(kept, r)
		}
	}
	if len(kept) != exclusions.Len() {
		var err error
		if exclusions, err = patch.New(kept...); err != nil {
			return nil, err
		}
	}
	return newView(original, exclusions), nil
}

// newView builds a view from inputs already known to be valid.
func newView(original string, exclusions patch.Patch) *View {
	v := &View{
		original:   original,
		exclusions: exclusions,
		segments:   keptSegments(original, exclusions),
	}

	var sb strings.Builder
	if n := len(v.segments); n > 0 {
		sb.Grow(v.segments[n-1].Projected.End)
	}
	for _, seg := range v.segments {
		sb.WriteString(original[seg.Original.Start:seg.Original.End])
	}
	v.text = sb.String()
	return v
}

// keptSegments returns the complement of the exclusion ranges with the
// projected offset of each segment. Empty gaps are omitted, except that a
// document without exclusions always has exactly one segment.
func keptSegments(original string, exclusions patch.Patch) []Segment {
	if exclusions.IsEmpty() {
		whole := patch.NewRange(0, len(original))
		return []Segment{{Original: whole, Projected: whole}}
	}

	segs := make([]Segment, 0, exclusions.Len()+1)
	cursor, projected := 0, 0
	emit := func(start, end int) {
		if end <= start {
			return
		}
		n := end - start
		segs = append(segs, Segment{
			Original:  patch.NewRange(start, end),
			Projected: patch.NewRange(projected, projected+n),
		})
		projected += n
	}
	for i := 0; i < exclusions.Len(); i++ {
		x := exclusions.At(i).Range
		emit(cursor, x.Start)
		cursor = x.End
	}
	emit(cursor, len(original))
	return segs
}

// Original returns the full document text.
func (v *View) Original() string {
	return v.original
}

// Exclusions returns the patch that removes excluded ranges from the original.
func (v *View) Exclusions() patch.Patch {
	return v.exclusions
}

// Text returns the projected text.
func (v *View) Text() string {
	return v.text
}

// Segments returns the kept segments in document order.
func (v *View) Segments() []Segment {
	return slices.Clone(v.segments)
}

// Equal reports whether two views project the same text the same way.
func (v *View) Equal(other *View) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.original == other.original && v.exclusions.Equal(other.exclusions)
}

// String returns a short description of the view.
func (v *View) String() string {
	return fmt.Sprintf("View(original=%d bytes, projected=%d bytes, exclusions=%d)",
		len(v.original), len(v.text), v.exclusions.Len())
}

// OriginalToProjected maps an offset in the original text to the projected
// text. It returns false for offsets strictly inside an excluded range or
// outside the document.
func (v *View) OriginalToProjected(offset int) (int, bool) {
	i := sort.Search(len(v.segments), func(i int) bool {
		return v.segments[i].Original.End >= offset
	})
	if i == len(v.segments) || v.segments[i].Original.Start > offset {
		return 0, false
	}
	seg := v.segments[i]
	return seg.Projected.Start + offset - seg.Original.Start, true
}

// ProjectedToOriginal maps an offset in the projected text back to the
// original text. Offsets at a segment boundary map to the end of the earlier
// segment. Out of range offsets are clamped.
func (v *View) ProjectedToOriginal(offset int) int {
	if len(v.segments) == 0 || offset <= 0 {
		if len(v.segments) > 0 {
			return v.segments[0].Original.Start
		}
		return 0
	}
	i := sort.Search(len(v.segments), func(i int) bool {
		return v.segments[i].Projected.End >= offset
	})
	if i == len(v.segments) {
		return v.segments[i-1].Original.End
	}
	seg := v.segments[i]
	return seg.Original.Start + offset - seg.Projected.Start
}

// touchesExclusion reports whether r overlaps, touches or lies inside any
// exclusion range.
func (v *View) touchesExclusion(r patch.Range) bool {
	n := v.exclusions.Len()
	i := sort.Search(n, func(i int) bool {
		return v.exclusions.At(i).Range.End >= r.Start
	})
	return i < n && v.exclusions.At(i).Range.Touches(r)
}

// segmentFor returns the index of the kept segment that contains r.
func (v *View) segmentFor(r patch.Range) (int, bool) {
	i := sort.Search(len(v.segments), func(i int) bool {
		return v.segments[i].Original.End >= r.Start
	})
	if i == len(v.segments) || !v.segments[i].Original.ContainsRange(r) {
		return 0, false
	}
	return i, true
}
