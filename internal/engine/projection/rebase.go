package projection

import "github.com/dshills/contextview/internal/engine/patch"

// Rebase is the outcome of a successful TryRebase.
type Rebase struct {
	// Edit is the incoming patch expressed over the receiver's projected text.
	Edit patch.Patch

	// View is the projection of the edited original text.
	View *View
}

// TryRebase re-expresses incoming, a patch over the original text, as a patch
// over the projected text. It returns false when any replacement overlaps,
// touches or lies inside an excluded range, spans several kept segments, or
// reaches past the end of the original. No partial result is produced and
// the receiver is not modified.
func (v *View) TryRebase(incoming patch.Patch) (Rebase, bool) {
	if incoming.MaxEnd() > len(v.original) {
		return Rebase{}, false
	}

	// Validate the whole batch before building anything.
	owners := make([]int, incoming.Len())
	for i := 0; i < incoming.Len(); i++ {
		r := incoming.At(i).Range
		if v.touchesExclusion(r) {
			return Rebase{}, false
		}
		seg, ok := v.segmentFor(r)
		if !ok {
			return Rebase{}, false
		}
		owners[i] = seg
	}

	derived := make([]patch.Replacement, incoming.Len())
	for i, seg := range owners {
		r := incoming.At(i)
		shift := v.segments[seg].Projected.Start - v.segments[seg].Original.Start
		derived[i] = patch.Replacement{Range: r.Range.Shift(shift), NewText: r.NewText}
	}
	edit, err := patch.New(derived...)
	if err != nil {
		return Rebase{}, false
	}

	original, err := incoming.Apply(v.original)
	if err != nil {
		return Rebase{}, false
	}
	exclusions, err := patch.New(transit(v.exclusions.Replacements(), incoming)...)
	if err != nil {
		return Rebase{}, false
	}

	return Rebase{Edit: edit, View: newView(original, exclusions)}, true
}
