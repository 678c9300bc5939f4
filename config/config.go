package config

import (
	"github.com/indigo-web/multipart/mime"
)

type (
	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	BodyForm struct {
		// EntriesPrealloc is the number of preallocated seats for form.Form.
		EntriesPrealloc int
		// DefaultCharset is applied to every form entry, which neither carries its own charset
		// nor is overridden by the _charset_ entry.
		DefaultCharset mime.Charset
		// DefaultContentType is applied to every form entry without the Content-Type header.
		DefaultContentType mime.MIME
	}
)

type (
	Reader struct {
		// ReadBufferSize is the size of the buffer the stream is read into before being fed
		// into the parser. Any size works, but tiny buffers mean many parser invocations.
		ReadBufferSize int
	}

	Headers struct {
		// Number controls how many header lines a single part may carry. Default is the number
		// of preallocated seats, Maximal is the hard limit.
		Number HeadersNumber
		// Space limits the total length of header names and values of a single part. Default is
		// the initially allocated buffer size.
		Space HeadersSpace
	}

	Body struct {
		// MaxSize limits the total length of all the values collected into form.Form.
		MaxSize int64
		Form    BodyForm
	}
)

// Config holds the limits and pre-allocations used by the reader and form layers. The parser
// itself is free of any limits.
//
// Always start from Default() and modify it, as a manually initialized config most likely
// has some zero fields, disabling the corresponding features in ambiguous ways.
type Config struct {
	Reader  Reader
	Headers Headers
	Body    Body
}

// Default returns the default config.
func Default() *Config {
	return &Config{
		Reader: Reader{
			ReadBufferSize: 4 * 1024,
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 4,
				// parts usually carry Content-Disposition and Content-Type only
				Maximal: 32,
			},
			Space: HeadersSpace{
				Default: 512,
				Maximal: 8 * 1024,
			},
		},
		Body: Body{
			MaxSize: 32 * 1024 * 1024,
			Form: BodyForm{
				EntriesPrealloc:    8,
				DefaultCharset:     mime.UTF8,
				DefaultContentType: mime.Plain,
			},
		},
	}
}
