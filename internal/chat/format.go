// internal/chat/format.go
package chat

import (
	"regexp"
	"strings"
)

var numberMarker = regexp.MustCompile(`(\d+\.\s)`)

// FormatBotResponse cleans a bot answer for display in the transcript:
// markdown emphasis markers are stripped, and numbered-list answers are
// re-flowed so each item starts its own paragraph. The raw answer, not the
// formatted one, is what feeds the analysis pipeline.
func FormatBotResponse(text string) string {
	formatted := strings.TrimSpace(
		strings.ReplaceAll(strings.ReplaceAll(text, "**", ""), "*", ""),
	)

	if !strings.Contains(formatted, "1.") || !strings.Contains(formatted, "2.") {
		return formatted
	}

	// Split around the "1. ", "2. " markers and rebuild with paragraph
	// breaks ahead of each marker.
	var b strings.Builder
	last := 0
	for _, loc := range numberMarker.FindAllStringIndex(formatted, -1) {
		b.WriteString(formatted[last:loc[0]])
		b.WriteString("\n\n")
		b.WriteString(formatted[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(formatted[last:])

	return strings.TrimSpace(strings.TrimLeft(b.String(), "\n"))
}
