package summarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeScript replaces path atomically so the watcher never sees a partial file.
func writeScript(t *testing.T, path, script string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func projectWith(t *testing.T, s Summarizer, text string) string {
	t.Helper()
	v, err := Project(context.Background(), s, text)
	if err != nil {
		return "error: " + err.Error()
	}
	return v.Text()
}

func TestReloader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summarize.lua")
	writeScript(t, path, commentScript)

	r, err := NewReloader(path, nil)
	if err != nil {
		t.Fatalf("NewReloader failed: %v", err)
	}
	defer r.Close()

	if r.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", r.Generation())
	}
	if got := projectWith(t, r, "a\n# c\nb\n"); got != "a\nb\n" {
		t.Errorf("projection = %q, want %q", got, "a\nb\n")
	}

	writeScript(t, path, `function summarize(text) return {{0, 1}} end`)

	deadline := time.Now().Add(5 * time.Second)
	for projectWith(t, r, "abc") != "bc" {
		if time.Now().After(deadline) {
			t.Fatalf("script change not picked up, generation %d", r.Generation())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if r.Generation() < 2 {
		t.Errorf("Generation() = %d, want at least 2", r.Generation())
	}
}

func TestReloaderKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summarize.lua")
	writeScript(t, path, commentScript)

	r, err := NewReloader(path, nil)
	if err != nil {
		t.Fatalf("NewReloader failed: %v", err)
	}
	defer r.Close()

	writeScript(t, path, `function summarize(text`)
	if err := r.Reload(); !errors.Is(err, ErrScript) {
		t.Errorf("Reload should fail with ErrScript, got %v", err)
	}
	if got := projectWith(t, r, "a\n# c\nb\n"); got != "a\nb\n" {
		t.Errorf("previous script should stay in use, projection = %q", got)
	}
}

func TestReloaderClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summarize.lua")
	writeScript(t, path, commentScript)

	r, err := NewReloader(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := r.Summarize(context.Background(), "abc"); !errors.Is(err, ErrReloaderClosed) {
		t.Errorf("expected ErrReloaderClosed, got %v", err)
	}
}

func TestNewReloaderMissingScript(t *testing.T) {
	if _, err := NewReloader(filepath.Join(t.TempDir(), "missing.lua"), nil); err == nil {
		t.Error("expected error for missing script")
	}
}
