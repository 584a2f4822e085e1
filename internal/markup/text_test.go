package markup

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Section 4 was amended.", want: "Section 4 was amended."},
		{name: "tags", in: "<strong>Change:</strong> new duty", want: "Change: new duty"},
		{name: "line breaks", in: "first<br>second", want: "first\nsecond"},
		{name: "entities in markup", in: "<b>A &amp; B</b>", want: "A & B"},
		{name: "comparison signs", in: "the limit applies where a<b and c>d for all plants", want: "the limit applies where a<b and c>d for all plants"},
		{name: "bare entity", in: "A &amp; B", want: "A &amp; B"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PlainText(tc.in); got != tc.want {
				t.Fatalf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("regulation ", 30)
	lines := Wrap(text, 100)
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if len(line) > 100 {
			t.Fatalf("line exceeds width: %d", len(line))
		}
	}

	if got := Wrap("  \n ", 100); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestWrapSplitsLongWords(t *testing.T) {
	t.Parallel()

	token := strings.Repeat("x", 150)
	lines := Wrap("see "+token, 100)
	want := []string{"see", strings.Repeat("x", 100), strings.Repeat("x", 50)}
	if len(lines) != len(want) {
		t.Fatalf("Wrap = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWrapKeepsLineBreaks(t *testing.T) {
	t.Parallel()

	lines := Wrap(PlainText("first  line<br>second line"), 100)
	if len(lines) != 2 || lines[0] != "first line" || lines[1] != "second line" {
		t.Fatalf("Wrap = %q", lines)
	}
}
