package documents

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("only PDF files are supported")
	ErrTooLarge        = errors.New("file too large")
	// ErrStorage covers any failure of the metadata repo or object store.
	ErrStorage = errors.New("document storage failure")
)
