package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/multipart/internal/testutil"
	"github.com/stretchr/testify/require"
)

type (
	event = testutil.Event
	kind  = testutil.Kind
)

func ev(k kind, data ...string) event {
	return event{Kind: k, Data: strings.Join(data, "")}
}

func newParser(t *testing.T, boundary string) (*Parser, *testutil.Recorder) {
	rec := testutil.NewRecorder()
	p, err := New(boundary, rec)
	require.NoError(t, err)

	return p, rec
}

// feed feeds the pieces one by one, refeeding the remainder of a piece while the parser
// keeps consuming it.
func feed(p *Parser, pieces ...[]byte) (consumed int) {
	for _, piece := range pieces {
		for len(piece) > 0 && !p.Stopped() {
			n := p.Feed(piece)
			consumed += n
			piece = piece[n:]
		}
	}

	return consumed
}

func form(boundary string, parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString("--" + boundary + "\r\n" + part + "\r\n")
	}

	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}

func TestParser(t *testing.T) {
	t.Run("false boundary prefix in body", func(t *testing.T) {
		p, rec := newParser(t, "abcd")
		sample := []byte("--abcd\r\nContent-Disposition: x\r\n\r\nhel--ablo\r\n--abcd--\r\n")
		require.Equal(t, len(sample), p.Feed(sample))
		require.True(t, p.Stopped())
		require.True(t, p.Succeeded())
		require.NoError(t, p.Err())
		require.Empty(t, p.ErrorMessage())

		want := []event{
			ev(testutil.PartBegin),
			ev(testutil.HeaderField, "Content-Disposition"),
			ev(testutil.HeaderValue, "x"),
			ev(testutil.HeaderComplete),
			ev(testutil.HeadersComplete),
			ev(testutil.PartData, "hel--ablo"),
			ev(testutil.PartEnd),
			ev(testutil.End),
		}
		require.Equal(t, want, rec.Events)
		require.Zero(t, rec.Empty)
	})

	t.Run("multiple parts", func(t *testing.T) {
		p, rec := newParser(t, "xyz")
		sample := form("xyz",
			"Content-Disposition: form-data; name=\"a\"\r\nContent-Type: text/plain\r\n\r\nhello",
			"Content-Disposition: form-data; name=\"b\"\r\n\r\nworld",
		)
		require.Equal(t, len(sample), feed(p, []byte(sample)))
		require.True(t, p.Succeeded())

		want := []event{
			ev(testutil.PartBegin),
			ev(testutil.HeaderField, "Content-Disposition"),
			ev(testutil.HeaderValue, `form-data; name="a"`),
			ev(testutil.HeaderComplete),
			ev(testutil.HeaderField, "Content-Type"),
			ev(testutil.HeaderValue, "text/plain"),
			ev(testutil.HeaderComplete),
			ev(testutil.HeadersComplete),
			ev(testutil.PartData, "hello"),
			ev(testutil.PartEnd),
			ev(testutil.PartBegin),
			ev(testutil.HeaderField, "Content-Disposition"),
			ev(testutil.HeaderValue, `form-data; name="b"`),
			ev(testutil.HeaderComplete),
			ev(testutil.HeadersComplete),
			ev(testutil.PartData, "world"),
			ev(testutil.PartEnd),
			ev(testutil.End),
		}
		require.Equal(t, want, rec.Events)
	})

	t.Run("no headers and empty body", func(t *testing.T) {
		p, rec := newParser(t, "b")
		sample := form("b", "\r\n", "\r\n")
		require.Equal(t, len(sample), feed(p, []byte(sample)))
		require.True(t, p.Succeeded())

		want := []event{
			ev(testutil.PartBegin),
			ev(testutil.HeadersComplete),
			ev(testutil.PartEnd),
			ev(testutil.PartBegin),
			ev(testutil.HeadersComplete),
			ev(testutil.PartEnd),
			ev(testutil.End),
		}
		require.Equal(t, want, rec.Events)
		require.Zero(t, rec.Empty)
	})

	t.Run("empty header value and leading spaces", func(t *testing.T) {
		p, rec := newParser(t, "b")
		sample := form("b", "X-Empty:\r\nX-Spaced:    value \r\n\r\nbody")
		require.Equal(t, len(sample), feed(p, []byte(sample)))
		require.True(t, p.Succeeded())

		want := []event{
			ev(testutil.PartBegin),
			ev(testutil.HeaderField, "X-Empty"),
			ev(testutil.HeaderComplete),
			ev(testutil.HeaderField, "X-Spaced"),
			ev(testutil.HeaderValue, "value "),
			ev(testutil.HeaderComplete),
			ev(testutil.HeadersComplete),
			ev(testutil.PartData, "body"),
			ev(testutil.PartEnd),
			ev(testutil.End),
		}
		require.Equal(t, want, rec.Events)
		require.Zero(t, rec.Empty)
	})

	t.Run("epilogue is left unconsumed", func(t *testing.T) {
		p, rec := newParser(t, "b")
		sample := form("b", "\r\nbody")
		n := p.Feed([]byte(sample + "epilogue"))
		require.Equal(t, len(sample), n)
		require.True(t, p.Succeeded())
		require.Equal(t, 1, rec.Count(testutil.End))
	})

	t.Run("stopped parser consumes nothing", func(t *testing.T) {
		p, rec := newParser(t, "b")
		sample := []byte(form("b", "\r\nbody"))
		require.Equal(t, len(sample), p.Feed(sample))
		events := len(rec.Events)

		require.Zero(t, p.Feed(sample))
		require.Zero(t, p.Feed([]byte("--b\r\n")))
		require.Len(t, rec.Events, events)
	})

	t.Run("empty input", func(t *testing.T) {
		p, rec := newParser(t, "b")
		require.Zero(t, p.Feed(nil))
		require.Equal(t, Start, p.State())
		require.Empty(t, rec.Events)
	})

	t.Run("reusability", func(t *testing.T) {
		p, rec := newParser(t, "b")
		sample := []byte(form("b", "\r\nbody"))

		for range 5 {
			require.NoError(t, p.Configure("b"))
			p.SetHandler(rec)
			rec.Events = rec.Events[:0]
			require.Equal(t, len(sample), p.Feed(sample))
			require.True(t, p.Succeeded())
			require.Equal(t, []string{"body"}, rec.Bodies())
		}
	})
}

func TestFalseBoundaries(t *testing.T) {
	// every body contains a proper prefix of the delimiter or a delimiter followed by
	// something other than CRLF or "--" CRLF, therefore must be delivered intact.
	bodies := []string{
		"hel--ablo",
		"x\r\n--abcx",
		"\r\n--abcdX",
		"\r\n--abcd\rX",
		"\r\n--abcd-X",
		"\r\n--abcd--X",
		"\r\n--abcd--\rX",
		"\r\r\n--abcx",
		"Z\r\n--abcd\r",
		"Z\r\n--abcd-",
		"Z\r\n--abcd--\r",
		"\r\n--ab\r\n--abc\r\n--abcx",
		"trailing CR\r",
		"\n\n--abcd\r\n",
		"--abcd",
	}

	for _, body := range bodies {
		sample := []byte(form("abcd", "\r\n"+body))

		for step := 1; step <= len(sample); step++ {
			p, rec := newParser(t, "abcd")
			require.Equal(t, len(sample), feed(p, testutil.Scatter(sample, step)...))
			require.Truef(t, p.Succeeded(), "body %q, step %d: %s", body, step, p.ErrorMessage())
			require.Equal(t, []string{body}, rec.Bodies(), "step %d", step)
			require.Zero(t, rec.Empty)
		}
	}
}

func TestChunkingInvariance(t *testing.T) {
	boundary := "----WebKitFormBoundary" + uniuri.NewLen(16)
	sample := []byte(form(boundary,
		"Content-Disposition: form-data; name=\"text\"\r\n\r\n"+strings.Repeat("Hello, world! ", 50),
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.bin\"\r\n"+
			"Content-Type: application/octet-stream\r\n\r\n"+
			"\r\n--"+boundary[:10]+uniuri.NewLen(200),
		"X-Empty:\r\n\r\n",
	))

	reference, refRec := newParser(t, boundary)
	require.Equal(t, len(sample), reference.Feed(sample))
	require.True(t, reference.Succeeded())

	for step := 1; step < len(sample); step++ {
		p, rec := newParser(t, boundary)
		require.Equal(t, len(sample), feed(p, testutil.Scatter(sample, step)...))
		require.True(t, p.Succeeded(), "step %d", step)
		require.Equal(t, refRec.Events, rec.Events, "step %d", step)
		require.Zero(t, rec.Empty, "step %d", step)
	}
}

func TestSkipScan(t *testing.T) {
	// long runs without any delimiter byte are skipped in strides, the delivered body
	// must nevertheless be complete.
	body := strings.Repeat("0123456789", 1000)
	p, rec := newParser(t, "boundary")
	sample := []byte(form("boundary", "\r\n"+body))
	require.Equal(t, len(sample), p.Feed(sample))
	require.True(t, p.Succeeded())
	require.Equal(t, []string{body}, rec.Bodies())
	// PartBegin, HeadersComplete, PartData, PartEnd, End
	require.Equal(t, 5, rec.Raw)
}

func TestErrors(t *testing.T) {
	type testCase struct {
		Name   string
		Sample string
		Index  int
		State  State
	}

	cases := []testCase{
		{"different boundary", "--abce\r\n", 5, StartBoundary},
		{"no CR after boundary", "--abcd \r\n", 6, StartBoundary},
		{"no LF after boundary CR", "--abcd\r\r", 7, StartBoundary},
		{"preamble", "preamble\r\n--abcd\r\n", 0, StartBoundary},
		{"bad header field char", "--abcd\r\nContent_Type: x\r\n", 15, HeaderField},
		{"empty header field name", "--abcd\r\n: x\r\n", 8, HeaderField},
		{"CR within header field name", "--abcd\r\nContent\r\n", 15, HeaderField},
		{"no LF after header value", "--abcd\r\nA: b\rc", 13, HeaderValueAlmostDone},
		{"no LF after headers", "--abcd\r\nA: b\r\n\rc", 15, HeadersAlmostDone},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			p, _ := newParser(t, "abcd")
			require.Equal(t, tc.Index, p.Feed([]byte(tc.Sample)))
			require.True(t, p.Stopped())
			require.False(t, p.Succeeded())
			require.Equal(t, Error, p.State())
			require.NotEmpty(t, p.ErrorMessage())

			var syntaxErr *SyntaxError
			require.True(t, errors.As(p.Err(), &syntaxErr))
			require.True(t, errors.Is(p.Err(), ErrMalformed))
			require.Equal(t, tc.State, syntaxErr.State)
			require.Equal(t, tc.Sample[tc.Index], syntaxErr.Char)
			require.Equal(t, int64(tc.Index), syntaxErr.Offset)

			require.Zero(t, p.Feed([]byte(tc.Sample)))
			require.Zero(t, p.Feed([]byte(tc.Sample[tc.Index:])))
		})
	}

	t.Run("offset spans feeds", func(t *testing.T) {
		p, _ := newParser(t, "abcd")
		require.Equal(t, 8, p.Feed([]byte("--abcd\r\n")))
		require.Equal(t, 3, p.Feed([]byte("Foo@: bar\r\n")))

		var syntaxErr *SyntaxError
		require.True(t, errors.As(p.Err(), &syntaxErr))
		require.Equal(t, int64(11), syntaxErr.Offset)
		require.Equal(t, byte('@'), syntaxErr.Char)
	})

	t.Run("history is kept", func(t *testing.T) {
		p, rec := newParser(t, "abcd")
		sample := []byte("--abcd\r\n\r\nfirst\r\n--abcd\r\nGood: header\r\nBad header")
		n := p.Feed(sample)
		require.Equal(t, strings.Index(string(sample), "Bad ")+3, n)
		require.True(t, p.Stopped())

		want := []event{
			ev(testutil.PartBegin),
			ev(testutil.HeadersComplete),
			ev(testutil.PartData, "first"),
			ev(testutil.PartEnd),
			ev(testutil.PartBegin),
			ev(testutil.HeaderField, "Good"),
			ev(testutil.HeaderValue, "header"),
			ev(testutil.HeaderComplete),
			ev(testutil.HeaderField, "Bad"),
		}
		require.Equal(t, want, rec.Events)
	})
}

func TestConfigure(t *testing.T) {
	t.Run("empty boundary", func(t *testing.T) {
		_, err := New("", nil)
		require.ErrorIs(t, err, ErrEmptyBoundary)
	})

	t.Run("boundary with CRLF", func(t *testing.T) {
		_, err := New("ab\r\ncd", nil)
		require.ErrorIs(t, err, ErrBadBoundary)
	})

	t.Run("rejected boundary keeps state", func(t *testing.T) {
		p, _ := newParser(t, "abcd")
		require.Equal(t, 8, p.Feed([]byte("--abcd\r\n")))
		require.ErrorIs(t, p.Configure(""), ErrEmptyBoundary)
		require.Equal(t, HeaderFieldStart, p.State())
	})

	t.Run("zero value", func(t *testing.T) {
		var p Parser
		require.True(t, p.Stopped())
		require.Zero(t, p.Feed([]byte("--abcd\r\n")))
		require.ErrorIs(t, p.Err(), ErrNotConfigured)
		require.Empty(t, p.ErrorMessage())
	})

	t.Run("reset", func(t *testing.T) {
		p, _ := newParser(t, "abcd")
		p.Reset()
		require.True(t, p.Stopped())
		require.ErrorIs(t, p.Err(), ErrNotConfigured)
		require.Zero(t, p.Feed([]byte("--abcd\r\n")))
	})

	t.Run("configure drops handler", func(t *testing.T) {
		p, rec := newParser(t, "abcd")
		require.NoError(t, p.Configure("abcd"))
		require.Equal(t, 8, p.Feed([]byte("--abcd\r\n")))
		require.Empty(t, rec.Events)
	})

	t.Run("configure recovers from error", func(t *testing.T) {
		p, rec := newParser(t, "abcd")
		require.Zero(t, p.Feed([]byte("garbage")))
		require.Error(t, p.Err())

		require.NoError(t, p.Configure("abcd"))
		p.SetHandler(rec)
		require.NoError(t, p.Err())
		require.Equal(t, Start, p.State())
		require.Equal(t, 8, p.Feed([]byte("--abcd\r\n")))
		require.Equal(t, 1, rec.Count(testutil.PartBegin))
	})
}

func TestFuncs(t *testing.T) {
	var (
		fields, values []string
		parts, ends    int
	)

	p, err := New("abcd", Funcs{
		PartBegin: func() { parts++ },
		HeaderField: func(data []byte) {
			fields = append(fields, string(data))
		},
		HeaderValue: func(data []byte) {
			values = append(values, string(data))
		},
		End: func() { ends++ },
	})
	require.NoError(t, err)

	sample := []byte(form("abcd", "A: 1\r\nB: 2\r\n\r\nbody"))
	require.Equal(t, len(sample), p.Feed(sample))
	require.Equal(t, 1, parts)
	require.Equal(t, 1, ends)
	require.Equal(t, []string{"A", "B"}, fields)
	require.Equal(t, []string{"1", "2"}, values)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "PartData", PartData.String())
	require.Equal(t, "Error", State(0).String())
	require.Equal(t, "Unknown", State(200).String())
	require.True(t, End.Terminal())
	require.False(t, PartData.Terminal())
}
