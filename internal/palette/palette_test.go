package palette

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#FF00FF", "#ff00ff", true},
		{"0x008000", "#008000", true},
		{"0X000080", "#000080", true},
		{"800000", "#800000", true},
		{"#abc", "#aabbcc", true},
		{"#zzzzzz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		c, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && c.Hex() != tt.want {
			t.Errorf("ParseColor(%q) = %s, want %s", tt.in, c.Hex(), tt.want)
		}
	}
}

func TestIsDark(t *testing.T) {
	tests := []struct {
		hex  string
		dark bool
	}{
		{"#000000", true},
		{"#1e1e1e", true},
		{"#ffffff", false},
		{"#f5f5dc", false},
		{"#7f7f7f", false},
		{"#707070", true},
	}
	for _, tt := range tests {
		c, _ := colorful.Hex(tt.hex)
		if got := IsDark(c); got != tt.dark {
			t.Errorf("IsDark(%s) = %v, want %v", tt.hex, got, tt.dark)
		}
	}
}

func TestBGRRoundTrip(t *testing.T) {
	c := FromBGR(0x0000ff)
	if c.Hex() != "#ff0000" {
		t.Errorf("FromBGR(0x0000ff) = %s, want #ff0000", c.Hex())
	}
	if got := ToBGR(c); got != 0x0000ff {
		t.Errorf("ToBGR = %#06x, want 0x0000ff", got)
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		order, kind, n, want int
	}{
		{0, 0, 3, 0},
		{0, 1, 3, 1},
		{2, 2, 3, 1},
		{5, 0, 3, 2},
		{1, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := Class(tt.order, tt.kind, tt.n); got != tt.want {
			t.Errorf("Class(%d,%d,%d) = %d, want %d", tt.order, tt.kind, tt.n, got, tt.want)
		}
	}
}

func TestScheme(t *testing.T) {
	s := DefaultScheme()
	black, _ := colorful.Hex("#000000")
	white, _ := colorful.Hex("#ffffff")

	if !s.For(black).Equal(s.Dark) {
		t.Error("black background should select the dark palette")
	}
	if !s.For(white).Equal(s.Light) {
		t.Error("white background should select the light palette")
	}
	if s.Dark.Len() != 3 {
		t.Errorf("dark palette has %d classes, want 3", s.Dark.Len())
	}
	if s.Dark.Color(4).Hex() != s.Dark.Color(1).Hex() {
		t.Error("Color should wrap out of range classes")
	}

	if _, err := NewScheme([]string{"#fff"}, []string{"#000", "#111"}); err == nil {
		t.Error("mismatched palette sizes should be rejected")
	}
	if _, err := NewScheme([]string{"nope"}, []string{"#000"}); err == nil {
		t.Error("bad color should be rejected")
	}
}
