package ask

import (
	"strings"
	"unicode/utf8"

	"sortir-backend/internal/documents"
)

const blockSeparator = "\n\n"

func startDelimiter(fileName string) string {
	return "--- START OF DOCUMENT: " + fileName + " ---"
}

func endDelimiter(fileName string) string {
	return "--- END OF DOCUMENT: " + fileName + " ---"
}

// Assemble renders docs as delimited blocks in list order, never exceeding
// maxLength runes.
func Assemble(docs []documents.Document, maxLength int) string {
	out, _, _ := assemble(docs, maxLength)
	return out
}

// assemble also reports which documents contributed text and whether
// anything was cut.
//
// Whole blocks are kept while they fit. The first block that does not fit is
// cut inside its text so its closing delimiter survives; if even the
// delimiters do not fit, assembly stops at the previous block. A lone first
// block too small for its delimiters is hard-cut at maxLength.
func assemble(docs []documents.Document, maxLength int) (string, []string, bool) {
	if len(docs) == 0 || maxLength <= 0 {
		return "", nil, false
	}

	var b strings.Builder
	var sources []string
	used := 0

	for i, doc := range docs {
		start := startDelimiter(doc.FileName)
		end := endDelimiter(doc.FileName)
		sep := ""
		if i > 0 {
			sep = blockSeparator
		}

		overhead := utf8.RuneCountInString(sep+start) + 2 + utf8.RuneCountInString(end)
		textLen := utf8.RuneCountInString(doc.Text)
		if used+overhead+textLen <= maxLength {
			writeBlock(&b, sep, start, doc.Text, end)
			used += overhead + textLen
			sources = append(sources, doc.FileName)
			continue
		}

		room := maxLength - used - overhead
		switch {
		case room > 0:
			writeBlock(&b, sep, start, firstRunes(doc.Text, room), end)
			sources = append(sources, doc.FileName)
		case i == 0:
			var full strings.Builder
			writeBlock(&full, "", start, doc.Text, end)
			b.WriteString(firstRunes(full.String(), maxLength))
			sources = append(sources, doc.FileName)
		}
		return b.String(), sources, true
	}
	return b.String(), sources, false
}

func writeBlock(b *strings.Builder, sep, start, text, end string) {
	b.WriteString(sep)
	b.WriteString(start)
	b.WriteByte('\n')
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(end)
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
