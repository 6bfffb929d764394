package render

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	rgbFuncPattern   = regexp.MustCompile(`(?i)^rgba?\(([^)]+)\)$`)
	colorNamePattern = regexp.MustCompile(`^[A-Za-z]+$`)
)

// NormalizeColor converts assorted CSS-style color strings into a form ffmpeg
// accepts in filter expressions. Unparseable input falls back to "black" so a
// bad job spec degrades visibly instead of failing an encode.
//
// Accepted forms: named colors, #RGB/#RGBA/#RRGGBB/#RRGGBBAA hex,
// rgb()/rgba() functions, raw 0x values (passed through untouched), and the
// keyword "transparent".
func NormalizeColor(color string) string {
	value, _ := ParseColor(color)
	return value
}

// ParseColor is NormalizeColor with an ok report, false meaning the input was
// unparseable and the black fallback applies. Callers that own a logger
// surface the degradation as a warning.
func ParseColor(color string) (string, bool) {
	candidate := strings.TrimSpace(color)
	if candidate == "" {
		return "black", false
	}

	lowered := strings.ToLower(candidate)
	if lowered == "transparent" {
		return "0x00000000", true
	}

	if strings.HasPrefix(candidate, "0x") || strings.HasPrefix(candidate, "0X") {
		return candidate, true
	}

	if strings.HasPrefix(candidate, "#") {
		hexValue := strings.TrimLeft(candidate, "#")
		if len(hexValue) == 3 || len(hexValue) == 4 {
			var doubled strings.Builder
			for _, ch := range hexValue {
				doubled.WriteRune(ch)
				doubled.WriteRune(ch)
			}
			hexValue = doubled.String()
		}
		if len(hexValue) == 6 || len(hexValue) == 8 {
			return "0x" + strings.ToUpper(hexValue), true
		}
		return "black", false
	}

	if match := rgbFuncPattern.FindStringSubmatch(candidate); match != nil {
		parts := splitColorComponents(match[1])
		if len(parts) >= 3 {
			r := parseRGBComponent(parts[0])
			g := parseRGBComponent(parts[1])
			b := parseRGBComponent(parts[2])
			a := 255
			if len(parts) >= 4 {
				a = parseAlphaComponent(parts[3])
			}
			if a == 255 {
				return fmt.Sprintf("0x%02X%02X%02X", r, g, b), true
			}
			return fmt.Sprintf("0x%02X%02X%02X%02X", r, g, b, a), true
		}
		return "black", false
	}

	if colorNamePattern.MatchString(candidate) {
		return lowered, true
	}

	return "black", false
}

func splitColorComponents(inner string) []string {
	raw := strings.Split(inner, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// parseRGBComponent accepts percentages, 0..1 floats, and 0..255 values.
// Unparseable components collapse to 0.
func parseRGBComponent(component string) int {
	value := strings.TrimSpace(component)
	if value == "" {
		return 0
	}
	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0
		}
		return int(math.Round(clampFloat(percent, 0, 100) * 255 / 100))
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	if strings.Contains(value, ".") {
		if parsed >= 0 && parsed <= 1 {
			return int(math.Round(parsed * 255))
		}
		return int(math.Round(clampFloat(parsed, 0, 255)))
	}
	return int(math.Round(clampFloat(parsed, 0, 255)))
}

// parseAlphaComponent is like parseRGBComponent but defaults to opaque, and
// treats any value in 0..1 as a fraction regardless of decimal point.
func parseAlphaComponent(component string) int {
	value := strings.TrimSpace(component)
	if value == "" {
		return 255
	}
	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 255
		}
		return int(math.Round(clampFloat(percent, 0, 100) * 255 / 100))
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 255
	}
	if parsed >= 0 && parsed <= 1 {
		return int(math.Round(parsed * 255))
	}
	return int(math.Round(clampFloat(parsed, 0, 255)))
}

func clampFloat(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}
