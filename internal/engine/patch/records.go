package patch

import (
	"bytes"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record is the structural form of one replacement.
type Record struct {
	Start int    // Start offset in the base text
	Len   int    // Number of replaced bytes
	Text  string // Replacement text
}

// Records returns the structural form of the patch in range order.
func (p Patch) Records() []Record {
	out := make([]Record, len(p.reps))
	for i, r := range p.reps {
		out[i] = Record{Start: r.Range.Start, Len: r.Range.Len(), Text: r.NewText}
	}
	return out
}

// FromRecords rebuilds a patch from its structural form.
// Validation is identical to New.
func FromRecords(records []Record) (Patch, error) {
	reps := make([]Replacement, len(records))
	for i, rec := range records {
		if rec.Len < 0 {
			return Patch{}, fmt.Errorf("%w: record %d has negative length %d", ErrMalformedPatch, i, rec.Len)
		}
		reps[i] = Replace(rec.Start, rec.Start+rec.Len, rec.Text)
	}
	return New(reps...)
}

// MarshalJSON encodes the patch as [{"start":n,"len":n,"text":s},...].
func (p Patch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range p.Records() {
		obj, err := encodeRecord(rec)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(obj)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func encodeRecord(rec Record) ([]byte, error) {
	obj := []byte(`{}`)
	var err error
	if obj, err = sjson.SetBytes(obj, "start", rec.Start); err != nil {
		return nil, err
	}
	if obj, err = sjson.SetBytes(obj, "len", rec.Len); err != nil {
		return nil, err
	}
	if obj, err = sjson.SetBytes(obj, "text", rec.Text); err != nil {
		return nil, err
	}
	return obj, nil
}

// UnmarshalJSON decodes the record list produced by MarshalJSON and
// re-validates it.
func (p *Patch) UnmarshalJSON(data []byte) error {
	records, err := DecodeRecords(data)
	if err != nil {
		return err
	}
	decoded, err := FromRecords(records)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// DecodeRecords parses a JSON record list without validating the ranges.
func DecodeRecords(data []byte) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPatch)
	}
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return nil, nil
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrMalformedPatch, root.Type)
	}

	var (
		records []Record
		decErr  error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		start, length := value.Get("start"), value.Get("len")
		if !isInteger(start) || !isInteger(length) {
			decErr = fmt.Errorf("%w: record %d lacks integer start/len", ErrMalformedPatch, key.Int())
			return false
		}
		text := value.Get("text")
		if text.Exists() && text.Type != gjson.String {
			decErr = fmt.Errorf("%w: record %d has non-string text", ErrMalformedPatch, key.Int())
			return false
		}
		records = append(records, Record{
			Start: int(start.Int()),
			Len:   int(length.Int()),
			Text:  text.String(),
		})
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return records, nil
}

// isInteger reports whether v is a JSON number with no fractional part.
func isInteger(v gjson.Result) bool {
	return v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0)
}
