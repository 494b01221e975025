package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrExtraction is the umbrella error for any failure to turn an upload into text.
	ErrExtraction = errors.New("text extraction failed")
	// ErrUnreadablePDF means the bytes are not a PDF the parser can read.
	ErrUnreadablePDF = errors.New("file is not a readable PDF")
	// ErrNoText means the PDF parsed but carries no text layer (e.g. a scan).
	ErrNoText = errors.New("no extractable text")
)

var pdfMagic = []byte("%PDF-")

var pdfContentTypes = map[string]bool{
	"":                         true,
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true,
}

// IsPDF reports whether an upload should be treated as a PDF based on its
// declared name and content type.
func IsPDF(fileName, contentType string) bool {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(fileName)), ".pdf") {
		return false
	}
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return pdfContentTypes[clean]
}

// ExtractPDF returns the text of every page in document order, one newline
// between pages. Failures wrap ErrExtraction together with ErrUnreadablePDF or ErrNoText.
func ExtractPDF(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("%w: %w: missing PDF header", ErrExtraction, ErrUnreadablePDF)
	}

	text, err := readPages(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %v", ErrExtraction, ErrUnreadablePDF, err)
	}

	text = strings.TrimSpace(strings.ToValidUTF8(text, ""))
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrExtraction, ErrNoText)
	}
	return text, nil
}

func readPages(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimRight(pageText, "\n"))
	}
	return strings.Join(pages, "\n"), nil
}
