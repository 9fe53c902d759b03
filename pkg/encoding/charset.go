// Package encoding provides text encoding utilities for map sources.
//
// Map files written by older editors are often stored in a legacy code page
// rather than UTF-8. Property values such as messages carry those bytes.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrUnknownCharset is returned for charset names without a decoder.
var ErrUnknownCharset = errors.New("unknown charset")

// DefaultCharset is used when no charset is configured.
const DefaultCharset = "utf-8"

var charsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"cp437":        charmap.CodePage437,
	"ibm437":       charmap.CodePage437,
}

// Lookup returns the encoding for a charset name. UTF-8 returns nil, nil
// since no transformation is needed.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "utf-8" || n == "utf8" {
		return nil, nil
	}
	enc, ok := charsets[n]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, nil
}

// NewReader wraps r so it yields UTF-8 decoded from the named charset.
func NewReader(r io.Reader, charset string) (io.Reader, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// DecodeString converts a string in the named charset to UTF-8.
// Returns the original string if conversion fails.
func DecodeString(s, charset string) string {
	enc, err := Lookup(charset)
	if err != nil || enc == nil {
		return s
	}
	result, _, err := transform.String(enc.NewDecoder(), s)
	if err != nil {
		return s
	}
	return result
}

// TrimNullString removes everything from the first null byte and converts
// to string. Used for fixed-size name fields in binary lumps.
func TrimNullString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
