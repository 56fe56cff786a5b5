// Package projection keeps a reduced view of a document in step with edits
// made to the full document.
//
// A [View] pairs an original text with an exclusion patch that removes
// uninteresting regions. The projected text is what remains: the kept
// segments of the original, concatenated in order. Views are immutable.
//
// # Rebasing
//
// When an edit lands on the original text, [View.TryRebase] decides whether
// the same edit can be expressed against the projected text:
//
//	v, _ := projection.NewView(original, exclusions)
//	edit := patch.MustNew(patch.Replace(4, 5, "ABC"))
//
//	rb, ok := v.TryRebase(edit)
//	if !ok {
//	    // The edit touched excluded content: rebuild the projection
//	    // from edit.Apply(original).
//	}
//	// rb.Edit is expressed in projected-text coordinates.
//	// rb.View is the projection of the edited document.
//
// A rebase succeeds only when every replacement lies strictly inside a
// single kept segment. Replacements that overlap an excluded range, share
// an endpoint with one, or span several kept segments make the whole rebase
// fail. The receiver is never modified either way.
package projection
