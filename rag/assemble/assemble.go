// Package assemble turns ranked search snippets into a bounded context block
// for prompt composition.
package assemble

import (
	"fmt"
	"strings"

	contractx "github.com/kittipos/callroom/rag/contract"
)

const entrySeparator = "\n\n"

// DefaultLimit is the context character budget when none is configured.
const DefaultLimit = 4000

// Build concatenates snippet contents in the given order, labelling each
// entry, until the next entry would push the text past limit characters.
// Input order is the search service's relevance order and is never re-sorted.
//
// An entry that would overflow is dropped whole rather than cut mid-content,
// with one exception: when the very first entry is already larger than the
// budget it is cut at the boundary, so a chat prompt is never left without
// context that the index did return. Truncated reports whether anything was
// dropped or cut.
func Build(snippets []contractx.Snippet, limit int) contractx.AssembledContext {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var b strings.Builder
	truncated := false
	included := 0

	for _, sn := range snippets {
		content := strings.TrimSpace(sn.Content)
		if content == "" {
			continue
		}

		entry := fmt.Sprintf("Document %d:\n%s", included+1, content)
		sep := ""
		if b.Len() > 0 {
			sep = entrySeparator
		}

		if b.Len()+len(sep)+len(entry) > limit {
			if b.Len() == 0 {
				b.WriteString(entry[:limit])
				included++
			}
			truncated = true
			break
		}

		b.WriteString(sep)
		b.WriteString(entry)
		included++
	}

	return contractx.AssembledContext{
		Text:        b.String(),
		Truncated:   truncated,
		SourceCount: included,
	}
}
