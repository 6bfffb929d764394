package subtitles

import (
	"fmt"
	"math"
	"strings"
)

// StyleOptions parameterize the karaoke style row. Zero values fall back to
// the stock Arial 48 look.
type StyleOptions struct {
	Font     string
	FontSize int
}

// Header renders the ASS preamble: script info with the play resolution,
// the karaoke style, and the events format row.
func Header(width, height int, style StyleOptions) string {
	font := strings.TrimSpace(style.Font)
	if font == "" {
		font = "Arial"
	}
	size := style.FontSize
	if size <= 0 {
		size = 48
	}
	return "[Script Info]\n" +
		"ScriptType: v4.00+\n" +
		fmt.Sprintf("PlayResX: %d\n", width) +
		fmt.Sprintf("PlayResY: %d\n", height) +
		"ScaledBorderAndShadow: yes\n\n" +
		"[V4+ Styles]\n" +
		"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n" +
		fmt.Sprintf("Style: Karaoke, %s, %d, &H00FFFFFF, &H0000FFFF, &H00000000, &H64000000, 0, 0, 0, 0, 100, 100, 0, 0, 3, 2, 0.5, 2, 50, 50, 120, 0\n\n", font, size) +
		"[Events]\n" +
		"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"
}

// FormatTime renders seconds as an ASS h:mm:ss.cc timestamp.
func FormatTime(seconds float64) string {
	centis := int(math.Round(seconds * 100))
	if centis < 0 {
		centis = 0
	}
	hours := centis / 360000
	centis %= 360000
	minutes := centis / 6000
	centis %= 6000
	secs := centis / 100
	centis %= 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}

// Escape neutralizes the characters ASS treats as override syntax.
func Escape(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "{", `\{`)
	text = strings.ReplaceAll(text, "}", `\}`)
	return text
}

// DialogueLine renders one karaoke event with {\k} reveal tags per word and
// forced line breaks between line groups.
func DialogueLine(dialogue Dialogue) string {
	var text strings.Builder
	for i, word := range dialogue.Words {
		if i > 0 {
			if word.NewLine {
				text.WriteString(`\N`)
			} else {
				text.WriteString(" ")
			}
		}
		fmt.Fprintf(&text, "{\\k%d}%s", word.Centis, Escape(word.Text))
	}
	return fmt.Sprintf("Dialogue: 0,%s,%s,Karaoke,,0,0,%d,,%s",
		FormatTime(dialogue.Start), FormatTime(dialogue.End), dialogue.MarginV, text.String())
}

// Document serializes the complete karaoke overlay.
func Document(dialogues []Dialogue, width, height int, style StyleOptions) string {
	lines := make([]string, 0, len(dialogues)+1)
	lines = append(lines, Header(width, height, style))
	for _, dialogue := range dialogues {
		lines = append(lines, DialogueLine(dialogue))
	}
	return strings.Join(lines, "\n")
}
