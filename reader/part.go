package reader

import (
	"github.com/indigo-web/multipart/internal/strutil"
	"github.com/indigo-web/multipart/kv"
	"github.com/indigo-web/utils/strcomp"
)

// Disposition extracts the name and filename parameters of the Content-Disposition header.
// The disposition type itself isn't checked, so both form-data and attachment parts are
// accepted. ok is false if the header is missing or its parameters are malformed.
func Disposition(headers *kv.Storage) (name, filename string, ok bool) {
	value, found := headers.Get("Content-Disposition")
	if !found {
		return "", "", false
	}

	for key, param := range strutil.WalkKV(strutil.CutParams(value)) {
		switch {
		case len(key) == 0:
			return "", "", false
		case strcomp.EqualFold(key, "name"):
			name = param
		case strcomp.EqualFold(key, "filename"):
			filename = param
		}
	}

	return name, filename, true
}
