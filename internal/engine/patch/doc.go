// Package patch provides the edit algebra used by the projection engine.
//
// A [Patch] is an immutable set of simultaneous, non-overlapping text
// replacements over a base string. Replacements are kept sorted by start
// offset; adjacent replacements may touch but never overlap. The zero Patch
// is the identity transform.
//
// # Construction
//
// Patches are built from [Replacement] values in any order:
//
//	p, err := patch.New(
//	    patch.Replace(4, 5, "ABC"),
//	    patch.Delete(0, 3),
//	)
//	if errors.Is(err, patch.ErrMalformedPatch) {
//	    // inverted, negative or overlapping ranges
//	}
//
// # Application
//
// Apply produces a new string and never modifies the Patch:
//
//	out, err := p.Apply("abc012def")
//	// out == "0ABC2def"
//
// Applying a Patch whose ranges extend past the end of the base text fails
// with [ErrOutOfBounds]. Offsets are byte offsets into the UTF-8 string.
//
// # Serialization
//
// The structural form of a Patch is an ordered list of [Record] values
// ({start, len, text}). [FromRecords] re-validates exactly like [New], and
// the JSON encoding produced by MarshalJSON uses the same shape.
package patch
