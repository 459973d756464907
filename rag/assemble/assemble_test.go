package assemble

import (
	"fmt"
	"strings"
	"testing"

	contractx "github.com/kittipos/callroom/rag/contract"
)

func snippetsOf(contents ...string) []contractx.Snippet {
	out := make([]contractx.Snippet, 0, len(contents))
	for i, c := range contents {
		out = append(out, contractx.Snippet{
			Content:  c,
			Score:    float64(len(contents) - i),
			SourceID: fmt.Sprintf("doc-%d", i+1),
		})
	}
	return out
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	got := Build(nil, 4000)
	if got.Text != "" || got.Truncated || got.SourceCount != 0 {
		t.Fatalf("unexpected context for empty input: %+v", got)
	}
}

func TestBuildAllFit(t *testing.T) {
	t.Parallel()

	got := Build(snippetsOf("alpha", "beta", "gamma"), 4000)
	want := "Document 1:\nalpha\n\nDocument 2:\nbeta\n\nDocument 3:\ngamma"
	if got.Text != want {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Truncated {
		t.Fatal("expected truncated=false when everything fits")
	}
	if got.SourceCount != 3 {
		t.Fatalf("expected 3 sources, got %d", got.SourceCount)
	}
}

func TestBuildPreservesInputOrder(t *testing.T) {
	t.Parallel()

	// Scores are deliberately not descending; the assembler must not re-rank.
	snippets := []contractx.Snippet{
		{Content: "first", Score: 0.1},
		{Content: "second", Score: 9.9},
	}
	got := Build(snippets, 4000)
	if !strings.HasPrefix(got.Text, "Document 1:\nfirst") {
		t.Fatalf("input order was not preserved: %q", got.Text)
	}
}

func TestBuildDropsOverflowingEntryWhole(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 2000)
	got := Build(snippetsOf(big, big, big), 4000)

	if len(got.Text) > 4000 {
		t.Fatalf("text exceeds limit: %d", len(got.Text))
	}
	if !got.Truncated {
		t.Fatal("expected truncated=true")
	}
	if got.SourceCount != 1 {
		t.Fatalf("expected only the first entry to fit, got %d", got.SourceCount)
	}
	// The kept entry must be intact, not cut mid-content.
	if !strings.HasSuffix(got.Text, big) {
		t.Fatal("first entry was cut although it fit")
	}
}

func TestBuildFirstEntryLargerThanBudget(t *testing.T) {
	t.Parallel()

	got := Build(snippetsOf(strings.Repeat("y", 500)), 100)
	if len(got.Text) != 100 {
		t.Fatalf("expected boundary cut at 100 chars, got %d", len(got.Text))
	}
	if !got.Truncated {
		t.Fatal("expected truncated=true for boundary cut")
	}
	if got.SourceCount != 1 {
		t.Fatalf("expected source count 1, got %d", got.SourceCount)
	}
}

func TestBuildSkipsBlankSnippets(t *testing.T) {
	t.Parallel()

	got := Build(snippetsOf("", "   ", "useful"), 4000)
	if got.Text != "Document 1:\nuseful" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.SourceCount != 1 {
		t.Fatalf("expected source count 1, got %d", got.SourceCount)
	}
	if got.Truncated {
		t.Fatal("blank snippets must not mark the context truncated")
	}
}
