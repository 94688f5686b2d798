package summarize

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)

	prompt, err := BuildPrompt("today we covered integrals", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(prompt, "today we covered integrals") {
		t.Fatalf("prompt is missing the transcript")
	}
	if !strings.Contains(prompt, "March 14, 2026 at 3:09 PM") {
		t.Fatalf("prompt is missing the formatted timestamp")
	}
	if strings.Contains(prompt, "Additionally, follow these specific instructions") {
		t.Fatalf("prompt should not include the instruction block when none were given")
	}
}

func TestBuildPrompt_WithInstructions(t *testing.T) {
	prompt, err := BuildPrompt("transcript", "use bullet points only", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "use bullet points only") {
		t.Fatalf("prompt is missing the custom instructions")
	}
}

func TestBuildPrompt_InstructionsTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxCustomInstructionLength+1)
	if _, err := BuildPrompt("transcript", long, time.Now()); err != ErrInstructionsTooLong {
		t.Fatalf("expected ErrInstructionsTooLong, got %v", err)
	}

	// Exactly at the cap is fine.
	ok := strings.Repeat("x", MaxCustomInstructionLength)
	if _, err := BuildPrompt("transcript", ok, time.Now()); err != nil {
		t.Fatalf("unexpected error at the cap: %v", err)
	}

	// The cap counts characters, not bytes: a multibyte instruction at the
	// cap is still accepted.
	wide := strings.Repeat("ü", MaxCustomInstructionLength)
	if _, err := BuildPrompt("transcript", wide, time.Now()); err != nil {
		t.Fatalf("unexpected error for multibyte instructions at the cap: %v", err)
	}
}

func TestFixFlatLists(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "flat key terms become bullets",
			in:   "**Key Terms**: - integral - derivative - limit",
			want: "**Key Terms:**\n- integral\n- derivative\n- limit\n",
		},
		{
			name: "flat action items become bullets",
			in:   "**Action Items** - review chapter 3 - finish problem set",
			want: "**Action Items:**\n- review chapter 3\n- finish problem set\n",
		},
		{
			name: "single item is left alone",
			in:   "**Key Terms**: - integral",
			want: "**Key Terms**: - integral",
		},
		{
			name: "proper lists are untouched",
			in:   "# Title\n\n- one\n- two",
			want: "# Title\n\n- one\n- two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixFlatLists(tt.in); got != tt.want {
				t.Fatalf("FixFlatLists(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
