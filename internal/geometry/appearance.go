package geometry

import (
	"fmt"
	"strings"
)

// Appearance tags a surface. The renderer maps tags to materials.
type Appearance int

const (
	MetalSilver Appearance = iota
	DarkRed
	DarkGreen
	Pink
	Yellow
	OffWhite
	CamTexture
)

var appearanceNames = [...]string{
	MetalSilver: "silver",
	DarkRed:     "dark-red",
	DarkGreen:   "dark-green",
	Pink:        "pink",
	Yellow:      "yellow",
	OffWhite:    "off-white",
	CamTexture:  "cam-texture",
}

func (a Appearance) String() string {
	if a >= 0 && int(a) < len(appearanceNames) {
		return appearanceNames[a]
	}
	return fmt.Sprintf("Appearance(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Appearance) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(appearanceNames) {
		return nil, fmt.Errorf("unknown appearance %d", int(a))
	}
	return []byte(appearanceNames[a]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Appearance) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range appearanceNames {
		if name == s {
			*a = Appearance(i)
			return nil
		}
	}
	return fmt.Errorf("unknown appearance %q", s)
}

// Material is a flat colour description of an appearance.
type Material struct {
	Diffuse   [3]float32
	Shininess float32
}

var palette = [...]Material{
	MetalSilver: {Diffuse: [3]float32{0.5, 0.5, 0.6}, Shininess: 120},
	DarkRed:     {Diffuse: [3]float32{0.5, 0.1, 0.1}, Shininess: 100},
	DarkGreen:   {Diffuse: [3]float32{0.1, 0.5, 0.1}, Shininess: 100},
	Pink:        {Diffuse: [3]float32{0.8, 0.6, 0.8}, Shininess: 100},
	Yellow:      {Diffuse: [3]float32{0.8, 0.8, 0.0}, Shininess: 90},
	OffWhite:    {Diffuse: [3]float32{0.8, 0.8, 0.8}, Shininess: 60},
	CamTexture:  {Diffuse: [3]float32{0.5, 0.5, 0.6}, Shininess: 80},
}

// Material returns the default material for the tag.
func (a Appearance) Material() Material {
	if a >= 0 && int(a) < len(palette) {
		return palette[a]
	}
	return palette[MetalSilver]
}

// Appearances lists every tag in declaration order.
func Appearances() []Appearance {
	out := make([]Appearance, len(appearanceNames))
	for i := range out {
		out[i] = Appearance(i)
	}
	return out
}
