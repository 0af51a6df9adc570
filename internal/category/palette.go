package category

// DefaultFallbackColor is used for labels missing from the colour table.
const DefaultFallbackColor = "#D3D3D3"

// Palette assigns a stable display colour to each label.
type Palette struct {
	colors   map[string]string
	fallback string
}

// NewPalette copies colors; an empty fallback means DefaultFallbackColor.
func NewPalette(colors map[string]string, fallback string) Palette {
	if fallback == "" {
		fallback = DefaultFallbackColor
	}
	c := make(map[string]string, len(colors))
	for k, v := range colors {
		c[k] = v
	}
	return Palette{colors: c, fallback: fallback}
}

// Color returns the colour for label.
func (p Palette) Color(label string) string {
	if c, ok := p.colors[label]; ok && c != "" {
		return c
	}
	if p.fallback == "" {
		return DefaultFallbackColor
	}
	return p.fallback
}
