package subtitles

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordPattern    = regexp.MustCompile(`\S+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]`)
)

// Word is one karaoke token with its reveal time in centiseconds. NewLine
// marks the first word of a forced line break.
type Word struct {
	Text    string
	Centis  int
	NewLine bool
}

// KaraokeWords tokenizes chunk text into words and distributes the chunk's
// centisecond budget across them proportionally to word length. Weight is
// the count of word characters (punctuation stripped), minimum one; each
// word receives at least one centisecond and the rounding remainder lands
// on the last word so the allocations sum exactly to the budget. Explicit
// line groups win over embedded line breaks; allocation runs across the
// whole chunk regardless of line structure.
func KaraokeWords(text string, lines []string, totalCentis int) []Word {
	words := tokenize(text, lines)
	if len(words) == 0 {
		return nil
	}
	if totalCentis < 1 {
		totalCentis = 1
	}

	weights := make([]int, len(words))
	totalWeight := 0
	for i, word := range words {
		weight := utf8.RuneCountInString(nonWordPattern.ReplaceAllString(word.Text, ""))
		if weight < 1 {
			weight = 1
		}
		weights[i] = weight
		totalWeight += weight
	}

	allocated := 0
	for i := range words {
		share := int(math.Round(float64(totalCentis) * float64(weights[i]) / float64(totalWeight)))
		if share < 1 {
			share = 1
		}
		words[i].Centis = share
		allocated += share
	}
	words[len(words)-1].Centis += totalCentis - allocated
	return words
}

func tokenize(text string, lines []string) []Word {
	groups := lineGroups(text, lines)
	words := make([]Word, 0, 8)
	for g, group := range groups {
		tokens := wordPattern.FindAllString(group, -1)
		for t, token := range tokens {
			words = append(words, Word{Text: token, NewLine: g > 0 && t == 0})
		}
	}
	return words
}

// lineGroups resolves a chunk's line structure: explicit multi-line input
// wins, then embedded line breaks, then the whole text as one line.
func lineGroups(text string, explicit []string) []string {
	groups := make([]string, 0, len(explicit))
	for _, line := range explicit {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			groups = append(groups, trimmed)
		}
	}
	if len(groups) > 0 {
		return groups
	}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			groups = append(groups, trimmed)
		}
	}
	return groups
}

func trimText(text string) string {
	return strings.TrimSpace(text)
}
