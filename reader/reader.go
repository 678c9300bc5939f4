package reader

import (
	"errors"
	"io"

	"github.com/indigo-web/multipart/config"
	"github.com/indigo-web/multipart/kv"
	"github.com/indigo-web/multipart/parser"
	"github.com/indigo-web/utils/uf"
)

var (
	ErrTooManyHeaders  = errors.New("multipart: too many header lines in a part")
	ErrHeadersTooLarge = errors.New("multipart: part headers are too large")
)

// Reader drives a parser.Parser and assembles the header lines of each part, so handlers
// get a part with all its headers at once.
type Reader struct {
	cfg     *config.Config
	parser  parser.Parser
	handler Handler
	stopper Stopper
	headers *kv.Storage
	// space holds the names and values of all the header lines of the current part.
	// Header strings are views into it.
	space      []byte
	valueStart int
	buff       []byte
	err        error
}

// New returns a reader, which must be given a boundary via Reset before the first use. Nil
// config means the default one.
func New(cfg *config.Config, handler Handler) *Reader {
	if cfg == nil {
		cfg = config.Default()
	}

	if handler == nil {
		handler = Funcs{}
	}

	stopper, _ := handler.(Stopper)

	return &Reader{
		cfg:     cfg,
		handler: handler,
		stopper: stopper,
		headers: kv.NewPrealloc(cfg.Headers.Number.Default),
		space:   make([]byte, 0, cfg.Headers.Space.Default),
	}
}

// Reset discards the progress and prepares the reader for a new stream.
func (r *Reader) Reset(boundary string) error {
	if err := r.parser.Configure(boundary); err != nil {
		return err
	}

	r.parser.SetHandler((*sink)(r))
	r.headers.Clear()
	r.space = r.space[:0]
	r.valueStart = -1
	r.err = nil

	return nil
}

// Feed passes the data to the parser. It returns the number of bytes consumed and an error,
// if the stream turned out malformed or exceeded the configured limits. After the stream
// has ended, nothing is consumed anymore.
func (r *Reader) Feed(data []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}

	n = r.parser.Feed(data)
	if r.err == nil {
		r.err = r.parser.Err()
	}

	return n, r.err
}

// ReadFrom feeds the whole src until the stream ends. Reaching EOF before the close-delimiter
// results in io.ErrUnexpectedEOF. Anything after the close-delimiter is left unread, unless it
// was read into the same buffer.
func (r *Reader) ReadFrom(src io.Reader) (total int64, err error) {
	if r.buff == nil {
		r.buff = make([]byte, r.cfg.Reader.ReadBufferSize)
	}

	for !r.Stopped() {
		n, readErr := src.Read(r.buff)
		total += int64(n)

		if n > 0 {
			if _, err = r.Feed(r.buff[:n]); err != nil {
				return total, err
			}
		}

		switch {
		case readErr == io.EOF:
			if !r.parser.Succeeded() {
				return total, io.ErrUnexpectedEOF
			}

			return total, nil
		case readErr != nil:
			return total, readErr
		}
	}

	return total, r.Err()
}

// Stopped reports whether the reader won't consume anything anymore.
func (r *Reader) Stopped() bool {
	return r.err != nil || r.parser.Stopped()
}

// Succeeded reports whether the whole stream was read successfully.
func (r *Reader) Succeeded() bool {
	return r.err == nil && r.parser.Succeeded()
}

// Err returns the error which stopped the reader, if any.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}

	return r.parser.Err()
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// sink receives the low-level parser events on behalf of the Reader.
type sink Reader

func (s *sink) OnPartBegin() {
	s.headers.Clear()
	s.space = s.space[:0]
	s.valueStart = -1
}

func (s *sink) OnHeaderField(data []byte) {
	s.grow(data)
}

func (s *sink) OnHeaderValue(data []byte) {
	if s.valueStart == -1 {
		s.valueStart = len(s.space)
	}

	s.grow(data)
}

func (s *sink) grow(data []byte) {
	if s.err != nil {
		return
	}

	if len(s.space)+len(data) > s.cfg.Headers.Space.Maximal {
		(*Reader)(s).fail(ErrHeadersTooLarge)
		return
	}

	s.space = append(s.space, data...)
}

func (s *sink) OnHeaderComplete() {
	if s.err != nil {
		return
	}

	if s.headers.Len() >= s.cfg.Headers.Number.Maximal {
		(*Reader)(s).fail(ErrTooManyHeaders)
		return
	}

	line := s.space[s.headers.Size():]
	key, value := line, line[len(line):]
	if s.valueStart != -1 {
		split := s.valueStart - s.headers.Size()
		key, value = line[:split], line[split:]
	}

	s.headers.Add(uf.B2S(key), uf.B2S(value))
	s.valueStart = -1
}

func (s *sink) OnHeadersComplete() {
	if s.err != nil {
		return
	}

	s.handler.OnPartBegin(s.headers)
	s.poll()
}

func (s *sink) OnPartData(data []byte) {
	if s.err != nil {
		return
	}

	s.handler.OnPartData(data)
	s.poll()
}

func (s *sink) OnPartEnd() {
	if s.err != nil {
		return
	}

	s.handler.OnPartEnd()
	s.poll()
}

func (s *sink) OnEnd() {
	if s.err != nil {
		return
	}

	s.handler.OnEnd()
	s.poll()
}

func (s *sink) poll() {
	if s.stopper == nil {
		return
	}

	if err := s.stopper.Err(); err != nil {
		(*Reader)(s).fail(err)
	}
}
