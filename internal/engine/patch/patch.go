package patch

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Errors returned by patch operations.
var (
	// ErrMalformedPatch indicates negative, inverted or overlapping ranges.
	ErrMalformedPatch = errors.New("malformed patch")

	// ErrOutOfBounds indicates a patch references offsets past the end of its base text.
	ErrOutOfBounds = errors.New("patch out of bounds")
)

// Replacement replaces the text in Range with NewText.
type Replacement struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// Replace creates a Replacement of [start, end) with text.
func Replace(start, end int, text string) Replacement {
	return Replacement{Range: Range{Start: start, End: end}, NewText: text}
}

// Insert creates a Replacement that inserts text at offset.
func Insert(offset int, text string) Replacement {
	return Replacement{Range: Range{Start: offset, End: offset}, NewText: text}
}

// Delete creates a Replacement that removes [start, end).
func Delete(start, end int) Replacement {
	return Replacement{Range: Range{Start: start, End: end}}
}

// String returns a human-readable representation of the replacement.
func (r Replacement) String() string {
	if r.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%d, %q)", r.Range.Start, r.NewText)
	}
	if r.NewText == "" {
		return fmt.Sprintf("Delete%s", r.Range)
	}
	return fmt.Sprintf("Replace%s with %q", r.Range, r.NewText)
}

// Delta returns the change in text length caused by this replacement.
func (r Replacement) Delta() int {
	return len(r.NewText) - r.Range.Len()
}

// IsDelete returns true if this replacement only removes text.
func (r Replacement) IsDelete() bool {
	return r.NewText == ""
}

// IsNoOp returns true if this replacement does nothing.
func (r Replacement) IsNoOp() bool {
	return r.Range.IsEmpty() && r.NewText == ""
}

// Patch is an immutable, sorted set of non-overlapping replacements that are
// applied simultaneously to a base string. The zero value is the identity.
type Patch struct {
	reps []Replacement
}

// Identity returns the patch with no replacements.
func Identity() Patch {
	return Patch{}
}

// New validates and sorts the given replacements into a Patch.
// Ranges may touch but must not overlap. Insertions at the same offset keep
// their argument order.
func New(reps ...Replacement) (Patch, error) {
	for _, r := range reps {
		if !r.Range.IsValid() {
			return Patch{}, fmt.Errorf("%w: invalid range %s", ErrMalformedPatch, r.Range)
		}
	}
	if len(reps) == 0 {
		return Patch{}, nil
	}

	sorted := slices.Clone(reps)
	slices.SortStableFunc(sorted, compareReplacements)

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].Range, sorted[i].Range
		if cur.Start < prev.End {
			return Patch{}, fmt.Errorf("%w: %s overlaps %s", ErrMalformedPatch, prev, cur)
		}
	}
	return Patch{reps: sorted}, nil
}

// MustNew is like New but panics on error. Intended for tests and constants.
func MustNew(reps ...Replacement) Patch {
	p, err := New(reps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Single creates a patch holding one replacement of [start, end) with text.
func Single(start, end int, text string) (Patch, error) {
	return New(Replace(start, end, text))
}

func compareReplacements(a, b Replacement) int {
	if c := cmp.Compare(a.Range.Start, b.Range.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.Range.End, b.Range.End)
}

// Len returns the number of replacements.
func (p Patch) Len() int {
	return len(p.reps)
}

// IsEmpty returns true if the patch is the identity.
func (p Patch) IsEmpty() bool {
	return len(p.reps) == 0
}

// At returns the i-th replacement in range order.
func (p Patch) At(i int) Replacement {
	return p.reps[i]
}

// Replacements returns a copy of the replacements in range order.
func (p Patch) Replacements() []Replacement {
	return slices.Clone(p.reps)
}

// MaxEnd returns the largest end offset referenced by the patch, or 0.
func (p Patch) MaxEnd() int {
	if len(p.reps) == 0 {
		return 0
	}
	return p.reps[len(p.reps)-1].Range.End
}

// Delta returns the total change in text length caused by the patch.
func (p Patch) Delta() int {
	var delta int
	for _, r := range p.reps {
		delta += r.Delta()
	}
	return delta
}

// IsDeletion returns true if every replacement only removes text.
func (p Patch) IsDeletion() bool {
	for _, r := range p.reps {
		if !r.IsDelete() {
			return false
		}
	}
	return true
}

// Equal reports whether two patches hold the same replacements.
func (p Patch) Equal(other Patch) bool {
	return slices.Equal(p.reps, other.reps)
}

// String returns a human-readable representation of the patch.
func (p Patch) String() string {
	if len(p.reps) == 0 {
		return "Identity"
	}
	parts := make([]string, len(p.reps))
	for i, r := range p.reps {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Apply returns the result of applying the patch to base.
// Base must be at least as long as the largest referenced end offset.
func (p Patch) Apply(base string) (string, error) {
	if end := p.MaxEnd(); end > len(base) {
		return "", fmt.Errorf("%w: end %d exceeds length %d", ErrOutOfBounds, end, len(base))
	}
	if len(p.reps) == 0 {
		return base, nil
	}

	var sb strings.Builder
	sb.Grow(len(base) + p.Delta())
	cursor := 0
	for _, r := range p.reps {
		sb.WriteString(base[cursor:r.Range.Start])
		sb.WriteString(r.NewText)
		cursor = r.Range.End
	}
	sb.WriteString(base[cursor:])
	return sb.String(), nil
}
