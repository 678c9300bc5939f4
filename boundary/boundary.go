package boundary

import (
	"errors"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/multipart/internal/strutil"
	"github.com/indigo-web/multipart/mime"
	"github.com/indigo-web/utils/strcomp"
)

var (
	ErrNotMultipart = errors.New("boundary: media type is not multipart")
	ErrNoBoundary   = errors.New("boundary: no boundary parameter")
	ErrBadParams    = errors.New("boundary: malformed media type parameters")
	ErrBadBoundary  = errors.New("boundary: boundary contains illegal characters or is too long")
)

// MaxLength is the longest boundary allowed by RFC 2046.
const MaxLength = 70

// generatedLength is the length of boundaries returned by New.
const generatedLength = 32

// bchars are the characters RFC 2046 allows in a boundary.
var bchars = func() (table [256]bool) {
	for _, c := range []byte("0123456789" +
		"abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"'()+_,-./:=? ") {
		table[c] = true
	}

	return table
}()

// FromContentType extracts the boundary parameter of a multipart/* Content-Type header value.
func FromContentType(value string) (string, error) {
	if !mime.IsMultipart(value) {
		return "", ErrNotMultipart
	}

	for key, param := range strutil.WalkKV(strutil.CutParams(value)) {
		if len(key) == 0 {
			return "", ErrBadParams
		}

		if !strcomp.EqualFold(key, "boundary") {
			continue
		}

		if !Valid(param) {
			return "", ErrBadBoundary
		}

		return param, nil
	}

	return "", ErrNoBoundary
}

// Valid reports whether the token is a boundary RFC 2046 permits.
func Valid(token string) bool {
	if len(token) == 0 || len(token) > MaxLength || token[len(token)-1] == ' ' {
		return false
	}

	for i := 0; i < len(token); i++ {
		if !bchars[token[i]] {
			return false
		}
	}

	return true
}

// New returns a random valid boundary.
func New() string {
	return uniuri.NewLen(generatedLength)
}
