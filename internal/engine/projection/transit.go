package projection

import "github.com/dshills/contextview/internal/engine/patch"

// transit moves markers through p. Both are sorted and expressed over the
// same pre-edit text, and no replacement in p may overlap or touch a marker.
// Each marker is shifted by the summed delta of the replacements that end at
// or before its start. Marker text is preserved.
func transit(markers []patch.Replacement, p patch.Patch) []patch.Replacement {
	out := make([]patch.Replacement, len(markers))
	delta, next := 0, 0
	for i, m := range markers {
		for next < p.Len() && p.At(next).Range.End <= m.Range.Start {
			delta += p.At(next).Delta()
			next++
		}
		out[i] = patch.Replacement{Range: m.Range.Shift(delta), NewText: m.NewText}
	}
	return out
}
