package form

import (
	"errors"
	"io"
	"strings"

	"github.com/indigo-web/multipart/config"
	"github.com/indigo-web/multipart/internal/strutil"
	"github.com/indigo-web/multipart/kv"
	"github.com/indigo-web/multipart/mime"
	"github.com/indigo-web/multipart/reader"
	"github.com/indigo-web/utils/strcomp"
)

var (
	ErrBodyTooLarge   = errors.New("multipart: form values exceed the size limit")
	ErrNoName         = errors.New("multipart: form part has no name")
	ErrBadContentType = errors.New("multipart: malformed Content-Type of a form part")
	ErrBadCharset     = errors.New("multipart: empty _charset_ value")
)

// charsetField overrides the default charset of the whole form. It isn't stored as an entry.
const charsetField = "_charset_"

// Collector is a reader.Handler buffering every part of a multipart/form-data stream into
// a Form.
type Collector struct {
	cfg     *config.Config
	form    Form
	entry   Data
	value   []byte
	size    int64
	charset mime.Charset
	err     error
}

func NewCollector(cfg *config.Config) *Collector {
	if cfg == nil {
		cfg = config.Default()
	}

	c := &Collector{cfg: cfg}
	c.Reset()

	return c
}

// Reset prepares the collector for a new form. Previously returned forms stay untouched.
func (c *Collector) Reset() {
	c.form = make(Form, 0, c.cfg.Body.Form.EntriesPrealloc)
	c.entry = Data{}
	c.value = c.value[:0]
	c.size = 0
	c.charset = ""
	c.err = nil
}

func (c *Collector) OnPartBegin(headers *kv.Storage) {
	if c.err != nil {
		return
	}

	name, filename, ok := reader.Disposition(headers)
	if !ok || len(name) == 0 {
		c.err = ErrNoName
		return
	}

	typ, charset, ok := contentType(headers.Value("Content-Type"))
	if !ok {
		c.err = ErrBadContentType
		return
	}

	if len(typ) == 0 {
		typ = c.cfg.Body.Form.DefaultContentType
	}

	// headers are valid until the part ends, so everything must be copied
	c.entry = Data{
		Name:     strings.Clone(name),
		Filename: strings.Clone(filename),
		Type:     strings.Clone(typ),
		Charset:  strings.Clone(charset),
	}
	c.value = c.value[:0]
}

func (c *Collector) OnPartData(data []byte) {
	if c.err != nil {
		return
	}

	c.size += int64(len(data))
	if c.size > c.cfg.Body.MaxSize {
		c.err = ErrBodyTooLarge
		return
	}

	c.value = append(c.value, data...)
}

func (c *Collector) OnPartEnd() {
	if c.err != nil {
		return
	}

	if c.entry.Name == charsetField {
		if len(c.value) == 0 {
			c.err = ErrBadCharset
			return
		}

		c.charset = string(c.value)
		return
	}

	c.entry.Value = string(c.value)
	c.form = append(c.form, c.entry)
}

// OnEnd applies the charset to every entry which didn't specify its own one.
func (c *Collector) OnEnd() {
	if c.err != nil {
		return
	}

	charset := c.charset
	if len(charset) == 0 {
		charset = c.cfg.Body.Form.DefaultCharset
	}

	for i := range c.form {
		if len(c.form[i].Charset) == 0 {
			c.form[i].Charset = charset
		}
	}
}

// Err returns the error which stopped the collecting, if any.
func (c *Collector) Err() error {
	return c.err
}

// Form returns the collected entries.
func (c *Collector) Form() (Form, error) {
	return c.form, c.err
}

func contentType(value string) (typ, charset string, ok bool) {
	if len(value) == 0 {
		return "", "", true
	}

	typ, params := strutil.CutHeader(value)
	for key, param := range strutil.WalkKV(params) {
		if len(key) == 0 {
			return "", "", false
		}

		if strcomp.EqualFold(key, "charset") {
			charset = param
		}
	}

	return strutil.RStripWS(typ), charset, true
}

// Parse reads the whole multipart/form-data stream from src. Nil config means the default one.
func Parse(cfg *config.Config, boundary string, src io.Reader) (Form, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	c := NewCollector(cfg)
	r := reader.New(cfg, c)
	if err := r.Reset(boundary); err != nil {
		return nil, err
	}

	if _, err := r.ReadFrom(src); err != nil {
		return nil, err
	}

	return c.Form()
}
