package summarize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCustomInstructionLength caps user-supplied prompt additions.
const MaxCustomInstructionLength = 500

// ErrInstructionsTooLong is returned when custom instructions exceed the cap.
var ErrInstructionsTooLong = fmt.Errorf("custom instructions exceed maximum length of %d characters", MaxCustomInstructionLength)

// BuildPrompt renders the note-taking prompt for a raw transcript. The
// transcript may contain speech-to-text errors; the model is asked to fix
// obvious mistakes while keeping meaning.
func BuildPrompt(transcript string, instructions string, now time.Time) (string, error) {
	if utf8.RuneCountInString(instructions) > MaxCustomInstructionLength {
		return "", ErrInstructionsTooLong
	}

	extra := ""
	if instructions != "" {
		extra = fmt.Sprintf("Additionally, follow these specific instructions: %s\n\n", instructions)
	}

	prompt := fmt.Sprintf(`You are an expert lecture note-taker.
The raw transcript below may contain speech-to-text errors;
correct obvious spelling/grammar mistakes while keeping meaning.
Produce **Markdown** with:

# A top-level title you infer from context (or "Untitled Lecture" if unclear)

**Date & Time:** %s

- A bulleted outline (topic, then sub-points)
- "Key Terms" and "Action Items" sections
- Preserve equations in LaTeX.

%sTranscript:
"""%s"""`, now.Format("January 02, 2006 at 3:04 PM"), extra, transcript)

	return prompt, nil
}

var flatListRe = regexp.MustCompile(`\*\*(Key Terms|Action Items)\*\*:?\s*(.+)`)
var flatItemRe = regexp.MustCompile(`\s*-\s+`)

// FixFlatLists turns "Key Terms - a - b - c" lines the model sometimes emits
// into proper markdown bullet lists.
func FixFlatLists(md string) string {
	return flatListRe.ReplaceAllStringFunc(md, func(match string) string {
		groups := flatListRe.FindStringSubmatch(match)
		title, body := groups[1], groups[2]

		var items []string
		for _, part := range flatItemRe.Split(body, -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				items = append(items, "- "+part)
			}
		}
		if len(items) < 2 {
			return match
		}
		return fmt.Sprintf("**%s:**\n%s\n", title, strings.Join(items, "\n"))
	})
}
