// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"strings"

	"github.com/pdiddy/insights-engine/pkg/types"
)

const (
	// chunkSize is the target chunk length in bytes.
	chunkSize = 1000

	// chunkOverlap is how much of the previous chunk's tail each chunk
	// repeats, so sentences cut at a boundary stay retrievable.
	chunkOverlap = 200
)

// indexableText concatenates a document's present text fields in a fixed
// order, one labeled block per field, separated by blank lines.
func indexableText(doc types.Document) string {
	var parts []string

	if doc.Title != "" {
		parts = append(parts, "Title: "+doc.Title)
	}
	if doc.Abstract != "" {
		parts = append(parts, "Abstract: "+doc.Abstract)
	} else if doc.BriefSummary != "" {
		parts = append(parts, "Summary: "+doc.BriefSummary)
	}
	if doc.DetailedDescription != "" {
		parts = append(parts, "Description: "+doc.DetailedDescription)
	}
	if len(doc.Conditions) > 0 {
		parts = append(parts, "Conditions: "+strings.Join(doc.Conditions, ", "))
	}
	if len(doc.Interventions) > 0 {
		ivs := make([]string, len(doc.Interventions))
		for i, iv := range doc.Interventions {
			ivs[i] = iv.Type + ": " + iv.Name
		}
		parts = append(parts, "Interventions: "+strings.Join(ivs, ", "))
	}
	if doc.Journal != "" {
		parts = append(parts, "Journal: "+doc.Journal)
	}
	if len(doc.Authors) > 0 {
		authors := doc.Authors
		if len(authors) > 5 {
			authors = authors[:5]
		}
		parts = append(parts, "Authors: "+strings.Join(authors, ", "))
	}

	return strings.Join(parts, "\n\n")
}

// splitText slices text into overlapping chunks of at most size bytes,
// preferring to cut at a paragraph break, then a newline, then a
// sentence end, then a space. Consecutive chunks share overlap bytes so
// the concatenated chunks cover the original text with no gaps.
func splitText(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			return chunks
		}

		cut := boundary(text, start, end)
		chunks = append(chunks, text[start:cut])

		next := cut - overlap
		if next <= start {
			// Guarantee forward progress on boundary-free text.
			next = start + 1
		}
		start = next
	}
}

// boundarySeparators in preference order.
var boundarySeparators = []string{"\n\n", "\n", ". ", " "}

// boundary picks the cut position in text[start:end], searching the tail
// of the window for the best natural separator. Falls back to the hard
// limit when the window has none.
func boundary(text string, start, end int) int {
	window := text[start:end]
	// Only consider separators in the back half so chunks stay near the
	// target size.
	floor := len(window) / 2

	for _, sep := range boundarySeparators {
		if idx := strings.LastIndex(window, sep); idx >= floor {
			return start + idx + len(sep)
		}
	}
	return end
}
