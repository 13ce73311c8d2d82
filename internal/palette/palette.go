// Package palette picks indicator colors for bracket nesting levels.
package palette

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Default color specs, one per indicator class.
var (
	DefaultDarkSpecs  = []string{"#FF00FF", "#FFFF00", "#00FFFF"}
	DefaultLightSpecs = []string{"#008000", "#000080", "#800000"}
)

// darkLumaThreshold is the luma below which a background counts as dark.
const darkLumaThreshold = 125

// Palette is an ordered list of indicator class colors.
type Palette struct {
	colors []colorful.Color
}

// New parses color specs into a palette.
func New(specs []string) (Palette, error) {
	if len(specs) == 0 {
		return Palette{}, errors.New("palette needs at least one color")
	}
	colors := make([]colorful.Color, len(specs))
	for i, spec := range specs {
		c, err := ParseColor(spec)
		if err != nil {
			return Palette{}, err
		}
		colors[i] = c
	}
	return Palette{colors: colors}, nil
}

// MustNew is New for package-level defaults.
func MustNew(specs []string) Palette {
	p, err := New(specs)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of classes.
func (p Palette) Len() int {
	return len(p.colors)
}

// Color returns the color of class. Out of range classes wrap.
func (p Palette) Color(class int) colorful.Color {
	if len(p.colors) == 0 {
		return colorful.Color{}
	}
	class %= len(p.colors)
	if class < 0 {
		class += len(p.colors)
	}
	return p.colors[class]
}

// Colors returns a copy of the class colors.
func (p Palette) Colors() []colorful.Color {
	out := make([]colorful.Color, len(p.colors))
	copy(out, p.colors)
	return out
}

// Hex returns the class colors as #rrggbb strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p.colors))
	for i, c := range p.colors {
		out[i] = c.Hex()
	}
	return out
}

// Equal reports whether two palettes hold the same colors.
func (p Palette) Equal(other Palette) bool {
	if len(p.colors) != len(other.colors) {
		return false
	}
	for i := range p.colors {
		if p.colors[i].Hex() != other.colors[i].Hex() {
			return false
		}
	}
	return true
}

// Class selects the indicator class for a pair at nesting order of the
// given kind index. Offsetting by kind keeps outermost pairs of different
// kinds apart.
func Class(order, kindIndex, numClasses int) int {
	if numClasses <= 0 {
		return 0
	}
	return (order + kindIndex) % numClasses
}

// Scheme holds the palettes for dark and light backgrounds.
type Scheme struct {
	Dark  Palette
	Light Palette
}

// DefaultScheme returns the built-in scheme.
func DefaultScheme() Scheme {
	return Scheme{
		Dark:  MustNew(DefaultDarkSpecs),
		Light: MustNew(DefaultLightSpecs),
	}
}

// NewScheme parses a scheme. Both palettes must have the same size so class
// numbers mean the same thing on either background.
func NewScheme(dark, light []string) (Scheme, error) {
	d, err := New(dark)
	if err != nil {
		return Scheme{}, fmt.Errorf("dark palette: %w", err)
	}
	l, err := New(light)
	if err != nil {
		return Scheme{}, fmt.Errorf("light palette: %w", err)
	}
	if d.Len() != l.Len() {
		return Scheme{}, fmt.Errorf("dark palette has %d colors, light has %d", d.Len(), l.Len())
	}
	return Scheme{Dark: d, Light: l}, nil
}

// For returns the palette suited to background.
func (s Scheme) For(background colorful.Color) Palette {
	if IsDark(background) {
		return s.Dark
	}
	return s.Light
}

// IsDark reports whether c has a perceived brightness below the threshold.
// Luma is approximated as (3R + 4G + B) / 8 on 8-bit channels.
func IsDark(c colorful.Color) bool {
	r, g, b := c.Clamped().RGB255()
	luma := (3*int(r) + 4*int(g) + int(b)) >> 3
	return luma < darkLumaThreshold
}

// ParseColor parses "#rrggbb", "#rgb" or "0xrrggbb".
func ParseColor(spec string) (colorful.Color, error) {
	s := strings.TrimSpace(spec)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = "#" + s[2:]
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", spec, err)
	}
	return c, nil
}

// FromBGR converts a 0xBBGGRR integer, the layout Scintilla-style hosts use,
// to a color.
func FromBGR(v uint32) colorful.Color {
	return colorful.Color{
		R: float64(v&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64((v>>16)&0xff) / 255,
	}
}

// ToBGR converts a color to a 0xBBGGRR integer.
func ToBGR(c colorful.Color) uint32 {
	r, g, b := c.Clamped().RGB255()
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16
}
