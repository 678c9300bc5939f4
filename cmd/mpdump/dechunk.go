package main

import (
	"io"

	"github.com/indigo-web/chunkedbody"
)

// dechunker decodes a body transfer-encoded as chunked. Trailers aren't expected.
type dechunker struct {
	src     io.Reader
	parser  *chunkedbody.Parser
	buff    []byte
	pending []byte
	chunk   []byte
	done    bool
}

func newDechunker(src io.Reader, buffSize int) *dechunker {
	return &dechunker{
		src:    src,
		parser: chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		buff:   make([]byte, buffSize),
	}
}

func (d *dechunker) Read(b []byte) (n int, err error) {
	for {
		if len(d.chunk) > 0 {
			n = copy(b, d.chunk)
			d.chunk = d.chunk[n:]
			return n, nil
		}

		if d.done {
			return 0, io.EOF
		}

		if len(d.pending) == 0 {
			n, err = d.src.Read(d.buff)
			switch {
			case n > 0:
				d.pending = d.buff[:n]
			case err == io.EOF:
				return 0, io.ErrUnexpectedEOF
			case err != nil:
				return 0, err
			default:
				continue
			}
		}

		chunk, extra, parseErr := d.parser.Parse(d.pending, false)
		switch parseErr {
		case nil:
		case io.EOF:
			d.done = true
		default:
			return 0, parseErr
		}

		d.chunk, d.pending = chunk, extra
	}
}
