package ask

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"sortir-backend/internal/documents"
)

func docs(pairs ...string) []documents.Document {
	out := make([]documents.Document, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, documents.Document{FileName: pairs[i], Text: pairs[i+1]})
	}
	return out
}

func TestAssembleEmpty(t *testing.T) {
	if got := Assemble(nil, 100); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := Assemble(docs("a.pdf", "alpha"), 0); got != "" {
		t.Fatalf("expected empty string for zero budget, got %q", got)
	}
}

func TestAssembleFormatsBlocksInOrder(t *testing.T) {
	got := Assemble(docs("a.pdf", "alpha", "b.pdf", "beta"), 10000)
	want := "--- START OF DOCUMENT: a.pdf ---\nalpha\n--- END OF DOCUMENT: a.pdf ---" +
		"\n\n" +
		"--- START OF DOCUMENT: b.pdf ---\nbeta\n--- END OF DOCUMENT: b.pdf ---"
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestAssembleTruncatesInsideTextKeepingEndDelimiter(t *testing.T) {
	input := docs("a.pdf", "alpha", "b.pdf", strings.Repeat("x", 500))
	full := Assemble(input, 100000)
	limit := utf8.RuneCountInString(full) - 100

	got, sources, truncated := assemble(input, limit)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if utf8.RuneCountInString(got) != limit {
		t.Fatalf("expected output to fill the budget exactly, got %d of %d", utf8.RuneCountInString(got), limit)
	}
	if !strings.HasSuffix(got, endDelimiter("b.pdf")) {
		t.Fatalf("expected closing delimiter preserved, got tail %q", got[len(got)-40:])
	}
	if len(sources) != 2 {
		t.Fatalf("expected both documents as sources, got %v", sources)
	}
}

func TestAssembleStopsAtBoundaryWhenDelimitersDoNotFit(t *testing.T) {
	input := docs("a.pdf", "alpha", "b.pdf", "beta")
	first := Assemble(input[:1], 100000)
	limit := utf8.RuneCountInString(first) + 10

	got, sources, truncated := assemble(input, limit)
	if got != first {
		t.Fatalf("expected output to stop after the first block, got %q", got)
	}
	if !truncated || len(sources) != 1 || sources[0] != "a.pdf" {
		t.Fatalf("unexpected sources=%v truncated=%v", sources, truncated)
	}
}

func TestAssembleHardCutWhenFirstBlockDelimitersDoNotFit(t *testing.T) {
	got := Assemble(docs("a.pdf", "alpha"), 12)
	if utf8.RuneCountInString(got) != 12 {
		t.Fatalf("expected hard cut at 12 runes, got %q", got)
	}
	if !strings.HasPrefix("--- START OF DOCUMENT: a.pdf ---", got) {
		t.Fatalf("expected prefix of the first block, got %q", got)
	}
}

func TestAssembleCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 300)
	input := docs("ü.pdf", text)
	limit := 150

	got := Assemble(input, limit)
	if n := utf8.RuneCountInString(got); n > limit {
		t.Fatalf("output %d runes exceeds limit %d", n, limit)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("output is not valid UTF-8")
	}
}

func TestAssembleNeverExceedsLimit(t *testing.T) {
	input := docs(
		"one.pdf", strings.Repeat("a", 37),
		"two.pdf", strings.Repeat("b", 211),
		"three.pdf", strings.Repeat("ç", 59),
	)
	total := utf8.RuneCountInString(Assemble(input, 1<<20))
	firstOverhead := utf8.RuneCountInString(startDelimiter("one.pdf")) + 2 + utf8.RuneCountInString(endDelimiter("one.pdf"))
	for limit := 1; limit <= total+5; limit++ {
		got, _, truncated := assemble(input, limit)
		n := utf8.RuneCountInString(got)
		if n > limit {
			t.Fatalf("limit %d: output has %d runes", limit, n)
		}
		if limit >= total && truncated {
			t.Fatalf("limit %d: unexpected truncation", limit)
		}
		if start, end := strings.Count(got, "--- START OF"), strings.Count(got, "--- END OF"); limit > firstOverhead && start != end {
			t.Fatalf("limit %d: unbalanced delimiters (%d start, %d end)", limit, start, end)
		}
	}
}

func ExampleAssemble() {
	fmt.Println(Assemble(docs("memo.pdf", "Invoice #42 due June 1"), 1000))
	// Output:
	// --- START OF DOCUMENT: memo.pdf ---
	// Invoice #42 due June 1
	// --- END OF DOCUMENT: memo.pdf ---
}
