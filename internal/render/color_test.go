package render

import "testing"

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "black"},
		{name: "whitespace only", input: "   ", expected: "black"},
		{name: "transparent keyword", input: "transparent", expected: "0x00000000"},
		{name: "transparent uppercase", input: "TRANSPARENT", expected: "0x00000000"},
		{name: "raw 0x passthrough", input: "0x1A2B3C", expected: "0x1A2B3C"},
		{name: "raw 0X passthrough keeps case", input: "0Xdeadbeef", expected: "0Xdeadbeef"},
		{name: "short hex doubled", input: "#fff", expected: "0xFFFFFF"},
		{name: "short hex with alpha doubled", input: "#f0f8", expected: "0xFF00FF88"},
		{name: "full hex uppercased", input: "#1a2b3c", expected: "0x1A2B3C"},
		{name: "full hex with alpha", input: "#aabbccdd", expected: "0xAABBCCDD"},
		{name: "hex with surrounding spaces", input: "  #000000  ", expected: "0x000000"},
		{name: "five digit hex rejected", input: "#12345", expected: "black"},
		{name: "rgb integers", input: "rgb(255, 0, 0)", expected: "0xFF0000"},
		{name: "rgb clamps above range", input: "rgb(300, -20, 0)", expected: "0xFF0000"},
		{name: "rgb percentages", input: "rgb(100%, 50%, 0%)", expected: "0xFF8000"},
		{name: "rgb fractions", input: "rgb(0.5, 0.25, 1)", expected: "0x804001"},
		{name: "rgba opaque collapses to rgb", input: "rgba(1, 2, 3, 1)", expected: "0x010203"},
		{name: "rgba fractional alpha", input: "rgba(255, 0, 0, 0.5)", expected: "0xFF000080"},
		{name: "rgba zero alpha", input: "rgba(10, 20, 30, 0)", expected: "0x0A141E00"},
		{name: "rgba garbage component becomes zero", input: "rgb(abc, 10, 20)", expected: "0x000A14"},
		{name: "rgba too few components", input: "rgba(1, 2)", expected: "black"},
		{name: "rgb extra components ignored", input: "rgb(1, 2, 3, 1, 99)", expected: "0x010203"},
		{name: "rgb case insensitive", input: "RGB(0, 0, 255)", expected: "0x0000FF"},
		{name: "named color lowercased", input: "RED", expected: "red"},
		{name: "named color passthrough", input: "white", expected: "white"},
		{name: "name with digits rejected", input: "gray50", expected: "black"},
		{name: "arbitrary junk", input: "not a color!", expected: "black"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeColor(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeColor(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseColorReportsFallback(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "named color parses", input: "red", ok: true},
		{name: "hex parses", input: "#102030", ok: true},
		{name: "transparent parses", input: "transparent", ok: true},
		{name: "raw 0x parses", input: "0xFF00FF", ok: true},
		{name: "empty falls back", input: "", ok: false},
		{name: "bad hex length falls back", input: "#12345", ok: false},
		{name: "short rgba falls back", input: "rgba(1, 2)", ok: false},
		{name: "junk falls back", input: "not a color!", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := ParseColor(tt.input)
			if ok != tt.ok {
				t.Errorf("ParseColor(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !ok && value != "black" {
				t.Errorf("ParseColor(%q) fallback = %q, want black", tt.input, value)
			}
		})
	}
}

func TestParseRGBComponent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "integer", input: "128", expected: 128},
		{name: "integer clamped high", input: "999", expected: 255},
		{name: "integer clamped low", input: "-5", expected: 0},
		{name: "fraction", input: "0.5", expected: 128},
		{name: "float above one treated as byte", input: "1.5", expected: 2},
		{name: "percent", input: "50%", expected: 128},
		{name: "percent clamped", input: "150%", expected: 255},
		{name: "unparseable", input: "abc", expected: 0},
		{name: "unparseable percent", input: "x%", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseRGBComponent(tt.input)
			if result != tt.expected {
				t.Errorf("parseRGBComponent(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseAlphaComponent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty defaults opaque", input: "", expected: 255},
		{name: "unparseable defaults opaque", input: "solid", expected: 255},
		{name: "fraction", input: "0.5", expected: 128},
		{name: "whole one is a fraction", input: "1", expected: 255},
		{name: "zero", input: "0", expected: 0},
		{name: "byte value", input: "128", expected: 128},
		{name: "percent", input: "25%", expected: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseAlphaComponent(tt.input)
			if result != tt.expected {
				t.Errorf("parseAlphaComponent(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}
