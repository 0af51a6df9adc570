package web

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gastos-dev/gastos/internal/category"
	"github.com/gastos-dev/gastos/internal/view"
)

const chartSize = 360

// slicePalette colours series by category instead of by position.
type slicePalette struct {
	chart.ColorPalette
	colors []drawing.Color
}

func (p slicePalette) GetSeriesColor(index int) drawing.Color {
	if index < len(p.colors) {
		return p.colors[index]
	}
	return p.ColorPalette.GetSeriesColor(index)
}

// Donut renders slices as an SVG donut chart labelled "R$ x (p%)". It
// returns an empty fragment when there is nothing to draw.
func Donut(slices []view.Slice) (template.HTML, error) {
	palette := slicePalette{ColorPalette: chart.DefaultColorPalette}
	var values []chart.Value
	for _, s := range slices {
		if !s.Total.IsPositive() {
			continue
		}
		color := sliceColor(s.Color)
		palette.colors = append(palette.colors, color)
		values = append(values, chart.Value{
			Value: s.Total.InexactFloat64(),
			// The SVG renderer writes labels verbatim.
			Label: template.HTMLEscapeString(s.Category + ": " + SliceLabel(s)),
			Style: chart.Style{FillColor: color, StrokeColor: chart.ColorWhite, StrokeWidth: 2},
		})
	}
	if len(values) == 0 {
		return "", nil
	}

	donut := chart.DonutChart{
		Width:        chartSize,
		Height:       chartSize,
		ColorPalette: palette,
		Values:       values,
	}
	var buf bytes.Buffer
	if err := donut.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// sliceColor parses a palette entry ("#008000" or a basic colour name).
// Anything unreadable gets the fallback colour.
func sliceColor(raw string) drawing.Color {
	if hex, ok := strings.CutPrefix(raw, "#"); ok && len(hex) != 3 && len(hex) != 6 {
		raw = category.DefaultFallbackColor
	}
	c := drawing.ParseColor(raw)
	if c.IsZero() {
		return drawing.ParseColor(category.DefaultFallbackColor)
	}
	return c
}

// SliceLabel is the text shown for a slice: "R$ 45,90 (78.6%)".
func SliceLabel(s view.Slice) string {
	return fmt.Sprintf("%s (%s%%)", view.Money(s.Total), s.Percent())
}
