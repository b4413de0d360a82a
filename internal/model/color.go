package model

import (
	"fmt"
	"regexp"
	"strings"
)

// palette maps the accepted color names to their hex codes.
var palette = map[string]string{
	"black":     "#000000",
	"white":     "#ffffff",
	"gray":      "#808080",
	"silver":    "#c0c0c0",
	"red":       "#ff0000",
	"maroon":    "#800000",
	"orange":    "#ffa500",
	"chocolate": "#d2691e",
	"brown":     "#a52a2a",
	"tan":       "#d2b48c",
	"wheat":     "#f5deb3",
	"beige":     "#f5f5dc",
	"cream":     "#fffdd0",
	"gold":      "#ffd700",
	"yellow":    "#ffff00",
	"green":     "#008000",
	"lime":      "#00ff00",
	"olive":     "#808000",
	"blue":      "#0000ff",
	"navy":      "#000080",
	"teal":      "#008080",
	"purple":    "#800080",
	"pink":      "#ffc0cb",
	"ginger":    "#b06500",
}

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// NormalizeColor accepts a known color name or a #rrggbb code that maps to
// one, and returns the lowercase color name.
func NormalizeColor(in string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(in))
	if c == "" {
		return "", fmt.Errorf("color is required")
	}
	if _, ok := palette[c]; ok {
		return c, nil
	}
	if !hexColor.MatchString(c) {
		return "", fmt.Errorf("unknown color %q", in)
	}
	for name, hex := range palette {
		if hex == c {
			return name, nil
		}
	}
	return "", fmt.Errorf("no color name for %s", c)
}

// ColorHex returns the hex code of a known color name.
func ColorHex(name string) (string, bool) {
	hex, ok := palette[strings.ToLower(name)]
	return hex, ok
}
