package classify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStyleSet(t *testing.T) {
	s := DefaultStyleSet()
	for _, style := range []int{1, 2, 3, 4, 6, 7, 9} {
		if !s.IsIgnorable(style) {
			t.Errorf("style %d should be ignorable", style)
		}
	}
	for _, style := range []int{0, 5, 8, 10} {
		if s.IsIgnorable(style) {
			t.Errorf("style %d should not be ignorable", style)
		}
	}

	got := NewStyleSet(9, 2, 5).Styles()
	want := []int{2, 5, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Styles() = %v, want %v", got, want)
		}
	}
}

func TestScriptClassifier(t *testing.T) {
	src := `
calls = 0
function is_ignorable(style)
  calls = calls + 1
  if style == 12 then return true end
  if style == 1 then return false end
  return default_ignorable(style)
end
`
	s, err := NewScript(src, NewStyleSet(1, 6))
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	defer s.Close()

	tests := map[int]bool{
		12: true,  // script
		1:  false, // script overrides fallback
		6:  true,  // fallback
		0:  false, // fallback
	}
	for style, want := range tests {
		if got := s.IsIgnorable(style); got != want {
			t.Errorf("IsIgnorable(%d) = %v, want %v", style, got, want)
		}
	}

	s.IsIgnorable(12)
	if calls := s.L.GetGlobal("calls").String(); calls != "4" {
		t.Errorf("script called %s times, want 4 (answers are cached)", calls)
	}

	s.Reset()
	s.IsIgnorable(12)
	if calls := s.L.GetGlobal("calls").String(); calls != "5" {
		t.Errorf("script called %s times after Reset, want 5", calls)
	}
}

func TestScriptFailureFallsBack(t *testing.T) {
	src := `function is_ignorable(style) error("boom") end`
	s, err := NewScript(src, NewStyleSet(3))
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	defer s.Close()

	if !s.IsIgnorable(3) {
		t.Error("failing script should defer to fallback for 3")
	}
	if s.IsIgnorable(4) {
		t.Error("failing script should defer to fallback for 4")
	}
}

func TestScriptTimeout(t *testing.T) {
	src := `function is_ignorable(style) while true do end end`
	s, err := NewScript(src, NewStyleSet(8))
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	defer s.Close()

	if !s.IsIgnorable(8) {
		t.Error("timed out call should defer to fallback")
	}
}

func TestScriptErrors(t *testing.T) {
	if _, err := NewScript(`x = 1`, nil); !errors.Is(err, ErrNoScriptFunc) {
		t.Errorf("missing function error = %v, want ErrNoScriptFunc", err)
	}
	if _, err := NewScript(`function (`, nil); err == nil {
		t.Error("syntax error should fail")
	}
	if _, err := NewScript(`dofile("/etc/passwd") function is_ignorable() end`, nil); err == nil {
		t.Error("dofile should not be available")
	}
}

func TestReadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classify.lua")
	if err := os.WriteFile(path, []byte(`function is_ignorable(s) return s > 100 end`), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := ReadScript(path)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	s, err := NewScript(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !s.IsIgnorable(101) || s.IsIgnorable(1) {
		t.Error("loaded script gave wrong answers")
	}

	if _, err := ReadScript(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("missing file should fail")
	}
}
