// Package badge renders shields-style SVG status badges.
package badge

import (
	"regexp"

	gobadge "github.com/narqo/go-badge"
)

// Values is everything drawn on a badge
type Values struct {
	Label   string
	Message string
	Color   string
	Style   string
}

// StyleFlat is the only style drawn; other requested styles render flat.
const StyleFlat = "flat"

const fallback = "#999"

// colorPattern accepts #rgb, #rrggbb and plain color names
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]{1,20})$`)

// SafeColor returns c when it is a hex or named color, otherwise def.
func SafeColor(c, def string) string {
	if colorPattern.MatchString(c) {
		return c
	}
	return def
}

// Render draws a flat badge. Text widths come from the renderer's font
// metrics; text is HTML escaped by the renderer.
func Render(v Values) ([]byte, error) {
	return gobadge.RenderBytes(v.Label, v.Message, gobadge.Color(SafeColor(v.Color, fallback)))
}
