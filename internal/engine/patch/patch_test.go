package patch

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("sorts replacements", func(t *testing.T) {
		p, err := New(Replace(6, 9, ""), Replace(0, 3, ""), Insert(4, "x"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if p.Len() != 3 {
			t.Fatalf("expected 3 replacements, got %d", p.Len())
		}
		want := []int{0, 4, 6}
		for i, start := range want {
			if p.At(i).Range.Start != start {
				t.Errorf("replacement %d starts at %d, want %d", i, p.At(i).Range.Start, start)
			}
		}
	})

	t.Run("allows touching ranges", func(t *testing.T) {
		if _, err := New(Replace(0, 3, "a"), Replace(3, 5, "b")); err != nil {
			t.Errorf("touching ranges rejected: %v", err)
		}
	})

	t.Run("allows insertion at replacement start", func(t *testing.T) {
		p, err := New(Replace(3, 5, "b"), Insert(3, "a"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if !p.At(0).Range.IsEmpty() {
			t.Errorf("insertion should sort first, got %v", p)
		}
	})

	t.Run("keeps order of insertions at one offset", func(t *testing.T) {
		p, err := New(Insert(2, "a"), Insert(2, "b"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		got, err := p.Apply("xxyy")
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if got != "xxabyy" {
			t.Errorf("Apply = %q, want %q", got, "xxabyy")
		}

		back, err := FromRecords(p.Records())
		if err != nil {
			t.Fatalf("FromRecords failed: %v", err)
		}
		if !back.Equal(p) {
			t.Errorf("round trip = %v, want %v", back, p)
		}
	})

	tests := []struct {
		name string
		reps []Replacement
	}{
		{"inverted range", []Replacement{Replace(5, 3, "")}},
		{"negative start", []Replacement{Replace(-1, 3, "")}},
		{"overlap", []Replacement{Replace(0, 4, ""), Replace(3, 6, "")}},
		{"overlap unsorted", []Replacement{Replace(3, 6, ""), Replace(0, 4, "")}},
		{"contained", []Replacement{Replace(0, 10, ""), Replace(2, 3, "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.reps...)
			if !errors.Is(err, ErrMalformedPatch) {
				t.Errorf("expected ErrMalformedPatch, got %v", err)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		p    Patch
		base string
		want string
	}{
		{"identity", Identity(), "hello", "hello"},
		{"identity empty", Patch{}, "", ""},
		{"insert front", MustNew(Insert(0, ">")), "abc", ">abc"},
		{"insert end", MustNew(Insert(3, "<")), "abc", "abc<"},
		{"delete middle", MustNew(Delete(1, 2)), "abc", "ac"},
		{"replace", MustNew(Replace(4, 5, "ABC")), "abc012def", "abc0ABC2def"},
		{
			"multiple",
			MustNew(Delete(0, 3), Delete(6, 9), Delete(13, 15), Delete(18, 22)),
			"abc012def3456gh789ijkl",
			"0123456789",
		},
		{"touching", MustNew(Replace(0, 1, "X"), Replace(1, 2, "Y")), "ab", "XY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Apply(tt.base)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	p := MustNew(Replace(2, 6, "x"))
	if _, err := p.Apply("abc"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := p.Apply("abcdef"); err != nil {
		t.Errorf("end equal to length should apply, got %v", err)
	}
	if _, err := MustNew(Insert(1, "x")).Apply(""); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("insertion past end: expected ErrOutOfBounds, got %v", err)
	}
}

func TestPatchImmutable(t *testing.T) {
	p := MustNew(Replace(0, 1, "a"))
	reps := p.Replacements()
	reps[0].NewText = "changed"
	if p.At(0).NewText != "a" {
		t.Error("Replacements must return a copy")
	}
}

func TestPatchDelta(t *testing.T) {
	p := MustNew(Replace(0, 3, ""), Replace(4, 5, "ABC"))
	if p.Delta() != -1 {
		t.Errorf("Delta = %d, want -1", p.Delta())
	}
	if p.MaxEnd() != 5 {
		t.Errorf("MaxEnd = %d, want 5", p.MaxEnd())
	}
	if p.IsDeletion() {
		t.Error("IsDeletion should be false")
	}
	if !MustNew(Delete(0, 3)).IsDeletion() {
		t.Error("IsDeletion should be true")
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	patches := []Patch{
		Identity(),
		MustNew(Insert(0, "x")),
		MustNew(Delete(0, 3), Replace(4, 5, "ABC"), Insert(9, "tail")),
		MustNew(Replace(1, 2, "quote \" and\nnewline")),
	}
	for _, p := range patches {
		got, err := FromRecords(p.Records())
		if err != nil {
			t.Fatalf("FromRecords(%v) failed: %v", p, err)
		}
		if !got.Equal(p) {
			t.Errorf("round trip = %v, want %v", got, p)
		}
	}
}

func TestFromRecordsValidates(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"negative len", []Record{{Start: 3, Len: -1}}},
		{"negative start", []Record{{Start: -2, Len: 1}}},
		{"overlap", []Record{{Start: 0, Len: 5}, {Start: 4, Len: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromRecords(tt.records); !errors.Is(err, ErrMalformedPatch) {
				t.Errorf("expected ErrMalformedPatch, got %v", err)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		p := MustNew(Replace(4, 5, "ABC"), Delete(0, 3), Insert(9, "\"q\"\n"))
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var got Patch
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !got.Equal(p) {
			t.Errorf("round trip = %v, want %v", got, p)
		}
	})

	t.Run("encoding shape", func(t *testing.T) {
		data, err := MustNew(Replace(4, 5, "ABC")).MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON failed: %v", err)
		}
		want := `[{"start":4,"len":1,"text":"ABC"}]`
		if string(data) != want {
			t.Errorf("MarshalJSON = %s, want %s", data, want)
		}
	})

	t.Run("identity", func(t *testing.T) {
		data, err := Identity().MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("MarshalJSON = %s, want []", data)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		inputs := []string{
			`{"start":1}`,
			`[{"start":"1","len":1}]`,
			`[{"start":1,"len":1,"text":5}]`,
			`[{"start":0,"len":4},{"start":2,"len":1}]`,
			`[{"start":5,"len":-2}]`,
			`[{"start":1.7,"len":0.9,"text":"x"}]`,
			`[{"start":1,"len":0.5}]`,
			`not json`,
		}
		for _, in := range inputs {
			var p Patch
			if err := p.UnmarshalJSON([]byte(in)); !errors.Is(err, ErrMalformedPatch) {
				t.Errorf("UnmarshalJSON(%s): expected ErrMalformedPatch, got %v", in, err)
			}
		}
	})

	t.Run("missing text means deletion", func(t *testing.T) {
		var p Patch
		if err := p.UnmarshalJSON([]byte(`[{"start":0,"len":2}]`)); err != nil {
			t.Fatalf("UnmarshalJSON failed: %v", err)
		}
		if !p.Equal(MustNew(Delete(0, 2))) {
			t.Errorf("got %v, want deletion", p)
		}
	})
}

func TestRange(t *testing.T) {
	r := NewRange(3, 6)
	if !r.Touches(NewRange(6, 9)) || !r.Touches(NewRange(0, 3)) {
		t.Error("adjacent ranges should touch")
	}
	if r.Overlaps(NewRange(6, 9)) {
		t.Error("adjacent ranges should not overlap")
	}
	if r.Touches(NewRange(7, 9)) {
		t.Error("separated ranges should not touch")
	}
	if !r.ContainsRange(NewRange(4, 5)) {
		t.Error("ContainsRange failed")
	}
	if r.Shift(2) != NewRange(5, 8) {
		t.Errorf("Shift = %v", r.Shift(2))
	}
}
