package mime

import (
	"strings"

	"github.com/indigo-web/multipart/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	FormData       MIME = "multipart/form-data"
	Mixed          MIME = "multipart/mixed"
)

type Charset = string

const (
	UTF8  Charset = "utf8"
	ASCII Charset = "ascii"
)

// IsMultipart reports whether the header value names any multipart/* media type. Parameters,
// if any, are ignored.
func IsMultipart(value string) bool {
	value, _ = strutil.CutHeader(value)
	value = strutil.RStripWS(value)
	typ, _, found := strings.Cut(value, "/")

	return found && strcomp.EqualFold(typ, "multipart")
}
