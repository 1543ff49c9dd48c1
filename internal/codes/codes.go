// Package codes turns raw security codes from arguments and text files into
// the sorted, de-duplicated list a run works on.
package codes

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// MaxDomesticLen is the longest code accepted from a text source.
const MaxDomesticLen = 5

// ErrEmptyInput is returned when no code survives normalization.
var ErrEmptyInput = errors.New("no valid codes")

// Normalize merges codes given directly with codes read from text.
// Every token is trimmed. Tokens from text must look like domestic codes
// (all digits, at most MaxDomesticLen long); direct tokens are kept as-is.
// The union is de-duplicated and returned in ascending order.
// text may be nil.
func Normalize(direct []string, text io.Reader) ([]string, error) {
	set := make(map[string]struct{}, len(direct))
	for _, d := range direct {
		if s := strings.TrimSpace(d); s != "" {
			set[s] = struct{}{}
		}
	}

	if text != nil {
		b, err := io.ReadAll(text)
		if err != nil {
			return nil, fmt.Errorf("read codes: %w", err)
		}
		for _, tok := range Split(string(b)) {
			if IsDomesticShape(tok) {
				set[tok] = struct{}{}
			}
		}
	}

	if len(set) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Split breaks a newline- or comma-delimited list into trimmed, non-empty tokens.
func Split(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// IsDomesticShape reports whether s is all ASCII digits and at most MaxDomesticLen long.
func IsDomesticShape(s string) bool {
	if s == "" || len(s) > MaxDomesticLen {
		return false
	}
	return IsDigits(s)
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
