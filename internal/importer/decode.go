package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultCharset is the encoding of exports from the mobile app.
const DefaultCharset = "utf-8"

// Decode wraps r so that it yields UTF-8 text, decoding from the named
// charset ("utf-8", "windows-1250", "iso-8859-2", ...). A leading UTF-8 byte
// order mark is dropped. For UTF-8 input, invalid byte sequences make reads
// fail with encoding.ErrInvalidUTF8 instead of being replaced.
func Decode(r io.Reader, charset string) (io.Reader, error) {
	if strings.TrimSpace(charset) == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownCharset, charset, err)
	}

	name, err := htmlindex.Name(enc)
	if err == nil && name == "utf-8" {
		return transform.NewReader(r, transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder())), nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
