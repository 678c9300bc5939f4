package strutil

import (
	"iter"
	"strings"
)

// tokenChars are the characters allowed in parameter names and unquoted values: everything
// printable except spaces and tspecials. Asterisk is kept for extended parameters, like
// filename*.
var tokenChars = func() (table [256]bool) {
	for c := 0x21; c < 0x7f; c++ {
		table[c] = !strings.ContainsRune(`()<>@,;:\"/[]?=`, rune(c))
	}

	return table
}()

func isToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if !tokenChars[str[i]] {
			return false
		}
	}

	return true
}

// WalkKV iterates over semicolon-separated key=value parameters, as in the
// Content-Disposition or Content-Type header values. Values may be quoted strings, in
// which case backslash escapes the following character. An error is reported as the empty
// pair, which is always the last one.
func WalkKV(data string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for data = LStripWS(data); len(data) > 0; data = LStripWS(data) {
			eq := strings.IndexByte(data, '=')
			if eq == -1 {
				yield("", "")
				return
			}

			key := RStripWS(data[:eq])
			if !isToken(key) {
				yield("", "")
				return
			}

			var (
				value string
				ok    bool
			)

			data = LStripWS(data[eq+1:])
			if len(data) > 0 && data[0] == '"' {
				value, data, ok = cutQuoted(data)
			} else {
				value, data, ok = cutToken(data)
			}

			if !ok {
				yield("", "")
				return
			}

			if !yield(key, value) {
				return
			}
		}
	}
}

func cutToken(data string) (value, rest string, ok bool) {
	value, rest, _ = strings.Cut(data, ";")
	value = RStripWS(value)

	return value, rest, isToken(value)
}

func cutQuoted(data string) (value, rest string, ok bool) {
	escaped := false

	for i := 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			escaped = true
			i++
		case '"':
			value, rest = data[1:i], LStripWS(data[i+1:])
			if escaped {
				value = unescape(value)
			}

			if len(rest) == 0 {
				return value, "", true
			}

			if rest[0] != ';' {
				return "", "", false
			}

			return value, rest[1:], true
		}
	}

	return "", "", false
}

func unescape(str string) string {
	var b strings.Builder
	b.Grow(len(str))

	for i := 0; i < len(str); i++ {
		if str[i] == '\\' && i+1 < len(str) {
			i++
		}

		b.WriteByte(str[i])
	}

	return b.String()
}
