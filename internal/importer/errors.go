package importer

import "errors"

var (
	// ErrMissingColumn means the export header lacks a column the parser reads.
	// The file is not a Partners Banka export or its format has changed.
	ErrMissingColumn = errors.New("missing column")

	// ErrShortRow means a data row has fewer fields than the header promised.
	ErrShortRow = errors.New("short row")

	// ErrMissingAmount means a settled transaction has an empty amount field.
	ErrMissingAmount = errors.New("missing amount")

	// ErrInvalidText means the input is not valid UTF-8 after decoding,
	// usually because the charset setting does not match the file.
	ErrInvalidText = errors.New("invalid UTF-8 text, check the charset setting")

	// ErrUnknownCharset means the configured character encoding is not recognized.
	ErrUnknownCharset = errors.New("unknown charset")
)
