package extract

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrNormalize = errors.New("text normalization failed")

// Normalize prepares post text for embedding in a prompt. The text is
// NFC-composed, then control characters, quotes and backslashes are escaped
// with Go escape sequences. Printable non-ASCII text such as Hangul is kept
// as is. Unescape reverses the escaping.
func Normalize(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrNormalize)
	}

	composed, _, err := transform.String(norm.NFC, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNormalize, err)
	}

	quoted := strconv.QuoteToGraphic(composed)
	return quoted[1 : len(quoted)-1], nil
}

func Unescape(escaped string) (string, error) {
	text, err := strconv.Unquote(`"` + escaped + `"`)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNormalize, err)
	}
	return text, nil
}
