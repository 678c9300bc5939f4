package writer

import (
	"errors"
	"io"
	"strings"

	"github.com/indigo-web/multipart/boundary"
	"github.com/indigo-web/multipart/kv"
	"github.com/indigo-web/multipart/mime"
)

var (
	ErrStarted   = errors.New("multipart: boundary can't be changed after the first part")
	ErrClosed    = errors.New("multipart: writer is closed")
	ErrNoParts   = errors.New("multipart: stream must contain at least one part")
	ErrBadHeader = errors.New("multipart: malformed part header")
)

// tspecials force the boundary to be quoted in the Content-Type parameter.
const tspecials = `()<>@,;:\"/[]?= `

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Writer produces a multipart stream, which the reader package consumes as is: the first
// boundary has no leading CRLF and every part is followed by the delimiter of the next one.
type Writer struct {
	w        io.Writer
	boundary string
	last     *part
	parts    int
	closed   bool
	buff     []byte
}

// New returns a writer with a random boundary.
func New(w io.Writer) *Writer {
	return &Writer{
		w:        w,
		boundary: boundary.New(),
	}
}

// Boundary returns the boundary token.
func (w *Writer) Boundary() string {
	return w.boundary
}

// SetBoundary overrides the random boundary. It must be called before the first part.
func (w *Writer) SetBoundary(token string) error {
	if w.parts > 0 {
		return ErrStarted
	}

	if !boundary.Valid(token) {
		return boundary.ErrBadBoundary
	}

	w.boundary = token
	return nil
}

// ContentType returns the multipart/form-data media type with the boundary parameter.
func (w *Writer) ContentType() string {
	token := w.boundary
	if strings.ContainsAny(token, tspecials) {
		token = `"` + token + `"`
	}

	return mime.FormData + "; boundary=" + token
}

// CreatePart writes the delimiter and the headers, returning the writer of the part body.
// The returned writer is valid until the next part is created or the Writer is closed.
func (w *Writer) CreatePart(headers *kv.Storage) (io.Writer, error) {
	if w.closed {
		return nil, ErrClosed
	}

	for key, value := range headers.Pairs() {
		if !validKey(key) || strings.ContainsAny(value, "\r\n") {
			return nil, ErrBadHeader
		}
	}

	if w.last != nil {
		w.last.closed = true
	}

	buff := w.buff[:0]
	if w.parts > 0 {
		buff = append(buff, "\r\n"...)
	}

	buff = append(append(append(buff, "--"...), w.boundary...), "\r\n"...)
	for key, value := range headers.Pairs() {
		buff = append(append(append(append(buff, key...), ": "...), value...), "\r\n"...)
	}

	buff = append(buff, "\r\n"...)
	w.buff = buff

	if _, err := w.w.Write(buff); err != nil {
		return nil, err
	}

	w.parts++
	w.last = &part{w: w}

	return w.last, nil
}

// CreateFormFile creates a part carrying the file contents.
func (w *Writer) CreateFormFile(field, filename string) (io.Writer, error) {
	headers := kv.NewPrealloc(2).
		Add("Content-Disposition", disposition(field)+`; filename="`+quoteEscaper.Replace(filename)+`"`).
		Add("Content-Type", mime.OctetStream)

	return w.CreatePart(headers)
}

// WriteField writes a regular form field.
func (w *Writer) WriteField(name, value string) error {
	p, err := w.CreatePart(kv.NewPrealloc(1).Add("Content-Disposition", disposition(name)))
	if err != nil {
		return err
	}

	_, err = io.WriteString(p, value)
	return err
}

// Close writes the close-delimiter. It doesn't close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	if w.parts == 0 {
		return ErrNoParts
	}

	w.closed = true
	w.last.closed = true
	_, err := io.WriteString(w.w, "\r\n--"+w.boundary+"--\r\n")

	return err
}

func disposition(name string) string {
	return `form-data; name="` + quoteEscaper.Replace(name) + `"`
}

func validKey(key string) bool {
	if len(key) == 0 {
		return false
	}

	for i := 0; i < len(key); i++ {
		c := key[i] | 0x20
		if key[i] != '-' && (c < 'a' || c > 'z') {
			return false
		}
	}

	return true
}

type part struct {
	w      *Writer
	closed bool
}

func (p *part) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}

	return p.w.w.Write(b)
}
