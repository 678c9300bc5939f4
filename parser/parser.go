package parser

import (
	"strings"
)

// lookbehindSlack covers the bytes following a fully matched delimiter (CR, or "--" CR)
// which are still kept aside until the match is resolved.
const lookbehindSlack = 8

// Parser is an incremental multipart/form-data parser. It is fed with arbitrary pieces of
// the stream and reports recognized units into its Handler without ever copying or buffering
// the body, except for the few bytes of an unresolved boundary match.
//
// The zero value is an unconfigured parser, which rejects any input. A Parser models exactly
// one stream and must not be used from multiple goroutines at once.
type Parser struct {
	handler   Handler
	completer HeaderCompleter

	delimiter  []byte
	lookbehind []byte
	// boundaryChars marks every distinct byte occurring in the delimiter.
	boundaryChars [256]bool

	state State
	flags boundaryFlags
	// index is the number of delimiter bytes matched so far. While parsing the start
	// boundary it counts the boundary bytes, and within a header field name it counts
	// the name length.
	index int

	headerFieldMark int
	headerValueMark int
	partDataMark    int

	// offset is the number of bytes consumed since the boundary was configured.
	offset int64
	err    *SyntaxError
}

// New returns a parser configured with the boundary token, reporting into the handler.
func New(boundary string, handler Handler) (*Parser, error) {
	p := new(Parser)
	if err := p.Configure(boundary); err != nil {
		return nil, err
	}

	p.SetHandler(handler)
	return p, nil
}

// Configure discards all the progress, including the registered handler, and prepares the
// parser for a new stream delimited by the boundary token.
func (p *Parser) Configure(boundary string) error {
	if len(boundary) == 0 {
		return ErrEmptyBoundary
	}

	if strings.ContainsAny(boundary, "\r\n") {
		return ErrBadBoundary
	}

	p.delimiter = append(append(p.delimiter[:0], "\r\n--"...), boundary...)

	if size := len(p.delimiter) + lookbehindSlack; cap(p.lookbehind) < size {
		p.lookbehind = make([]byte, size)
	} else {
		p.lookbehind = p.lookbehind[:size]
	}

	p.boundaryChars = [256]bool{}
	for _, c := range p.delimiter {
		p.boundaryChars[c] = true
	}

	p.handler, p.completer = nopHandler{}, nopHandler{}
	p.rewind(Start)

	return nil
}

// SetHandler registers the events receiver. If it implements HeaderCompleter as well, it is
// notified about header lines ends, too. Nil handler discards all the events.
func (p *Parser) SetHandler(handler Handler) {
	if handler == nil {
		handler = nopHandler{}
	}

	p.handler = handler

	if completer, ok := handler.(HeaderCompleter); ok {
		p.completer = completer
	} else {
		p.completer = nopHandler{}
	}
}

// Reset brings the parser back into the unconfigured state.
func (p *Parser) Reset() {
	p.delimiter = p.delimiter[:0]
	p.handler, p.completer = nopHandler{}, nopHandler{}
	p.rewind(Error)
}

func (p *Parser) rewind(state State) {
	p.state = state
	p.flags = 0
	p.index = 0
	p.headerFieldMark = unmarked
	p.headerValueMark = unmarked
	p.partDataMark = unmarked
	p.offset = 0
	p.err = nil
}

// Stopped reports whether the parser either completed the stream or failed. A stopped
// parser consumes nothing.
func (p *Parser) Stopped() bool {
	return p.state.Terminal()
}

// Succeeded reports whether the close-delimiter was reached.
func (p *Parser) Succeeded() bool {
	return p.state == End
}

// State returns the current mode.
func (p *Parser) State() State {
	return p.state
}

// Err returns ErrNotConfigured for a parser without boundary, the *SyntaxError which stopped
// the parser, or nil otherwise.
func (p *Parser) Err() error {
	switch {
	case p.err != nil:
		return p.err
	case len(p.delimiter) == 0:
		return ErrNotConfigured
	default:
		return nil
	}
}

// ErrorMessage describes the most recent structural error, if any.
func (p *Parser) ErrorMessage() string {
	if p.err == nil {
		return ""
	}

	return p.err.Error()
}

// Feed processes the data and returns how many bytes of it were consumed. The whole data
// is consumed unless the parser stops in the middle of it: either on a byte forbidden by
// the grammar, in which case the returned value is its index, or after the close-delimiter,
// leaving the epilogue unconsumed. A stopped parser always returns 0.
//
// The returned count alone doesn't distinguish these cases, consult Stopped and Err instead.
func (p *Parser) Feed(data []byte) int {
	if p.state.Terminal() || len(data) == 0 {
		return 0
	}

	var (
		state     = p.state
		flags     = p.flags
		index     = p.index
		delimiter = p.delimiter
		delimLen  = len(delimiter)
		i         int
	)

loop:
	for i < len(data) {
		c := data[i]

		switch state {
		case Start:
			index = 0
			state = StartBoundary
			fallthrough
		case StartBoundary:
			switch index {
			case delimLen - 2:
				if c != '\r' {
					return p.fail(data, i, state, "expected CR after boundary")
				}

				index++
			case delimLen - 1:
				if c != '\n' {
					return p.fail(data, i, state, "expected LF after boundary CR")
				}

				index = 0
				p.handler.OnPartBegin()
				state = HeaderFieldStart
			default:
				if c != delimiter[index+2] {
					return p.fail(data, i, state, "found different boundary data than the given one")
				}

				index++
			}
		case HeaderFieldStart:
			p.headerFieldMark = i
			index = 0
			state = HeaderField
			fallthrough
		case HeaderField:
			switch {
			case c == '\r':
				if index > 0 {
					return p.fail(data, i, state, "unexpected CR in header field name")
				}

				p.headerFieldMark = unmarked
				state = HeadersAlmostDone
			case c == ':':
				if index == 0 {
					return p.fail(data, i, state, "empty header field name")
				}

				if field := span(data, p.headerFieldMark, i); field != nil {
					p.handler.OnHeaderField(field)
				}

				p.headerFieldMark = unmarked
				index = 0
				state = HeaderValueStart
			case c == '-' || isAlpha(c):
				index++
			default:
				return p.fail(data, i, state, "malformed header field name")
			}
		case HeaderValueStart:
			if c == ' ' {
				break
			}

			p.headerValueMark = i
			state = HeaderValue
			fallthrough
		case HeaderValue:
			if c == '\r' {
				if value := span(data, p.headerValueMark, i); value != nil {
					p.handler.OnHeaderValue(value)
				}

				p.headerValueMark = unmarked
				state = HeaderValueAlmostDone
			}
		case HeaderValueAlmostDone:
			if c != '\n' {
				return p.fail(data, i, state, "expected LF after header value CR")
			}

			p.completer.OnHeaderComplete()
			state = HeaderFieldStart
		case HeadersAlmostDone:
			if c != '\n' {
				return p.fail(data, i, state, "expected LF after headers block CR")
			}

			p.completer.OnHeadersComplete()
			state = PartDataStart
		case PartDataStart:
			p.partDataMark = i
			state = PartData
			fallthrough
		case PartData:
			prevIndex := index

			if index == 0 {
				// no delimiter can start within a window whose last byte isn't
				// a delimiter byte, so such windows are skipped as a whole.
				for i+delimLen <= len(data) && !p.boundaryChars[data[i+delimLen-1]] {
					i += delimLen
				}

				if i == len(data) {
					break loop
				}

				c = data[i]
			}

			switch {
			case index < delimLen:
				if delimiter[index] == c {
					if index == 0 {
						if body := span(data, p.partDataMark, i); body != nil {
							p.handler.OnPartData(body)
						}

						p.partDataMark = unmarked
					}

					index++
				} else {
					index = 0
				}
			case index == delimLen:
				index++

				switch c {
				case '\r':
					flags |= partBoundary
				case '-':
					flags |= lastBoundary
				default:
					index = 0
				}
			case index == delimLen+1:
				switch {
				case flags&partBoundary != 0:
					index = 0

					if c == '\n' {
						flags &^= partBoundary
						p.handler.OnPartEnd()
						p.handler.OnPartBegin()
						state = HeaderFieldStart
						i++
						continue loop
					}
				case flags&lastBoundary != 0 && c == '-':
					index++
				default:
					index = 0
				}
			case index == delimLen+2:
				if c == '\r' {
					index++
				} else {
					index = 0
				}
			case index == delimLen+3:
				index = 0

				if c == '\n' {
					flags &^= lastBoundary
					p.handler.OnPartEnd()
					p.handler.OnEnd()
					state = End
					i++
					break loop
				}
			}

			if index > 0 {
				p.lookbehind[index-1] = c
			} else if prevIndex > 0 {
				// the match turned out to be false, so everything withheld so far was
				// regular data. The current byte is reconsidered, as it may start a new match.
				p.handler.OnPartData(p.lookbehind[:prevIndex])
				flags = 0
				p.partDataMark = i
				continue loop
			}
		default:
			return p.fail(data, i, state, "unexpected parser state")
		}

		i++
	}

	p.flushMarks(data, i, state.Terminal())
	p.state, p.flags, p.index = state, flags, index
	p.offset += int64(i)

	return i
}

// fail stops the parser on the data[i] byte. All the marked bytes preceding it are delivered
// before.
func (p *Parser) fail(data []byte, i int, state State, reason string) int {
	p.flushMarks(data, i, true)
	p.err = &SyntaxError{
		State:  state,
		Char:   data[i],
		Offset: p.offset + int64(i),
		Reason: reason,
	}
	p.state, p.flags, p.index = Error, 0, 0
	p.offset += int64(i)

	return i
}

// flushMarks delivers every still open run up to the end. Unless final, the runs stay open
// and continue from the beginning of the next fed data.
func (p *Parser) flushMarks(data []byte, end int, final bool) {
	if field := span(data, p.headerFieldMark, end); field != nil {
		p.handler.OnHeaderField(field)
	}

	if value := span(data, p.headerValueMark, end); value != nil {
		p.handler.OnHeaderValue(value)
	}

	if body := span(data, p.partDataMark, end); body != nil {
		p.handler.OnPartData(body)
	}

	p.headerFieldMark = remark(p.headerFieldMark, final)
	p.headerValueMark = remark(p.headerValueMark, final)
	p.partDataMark = remark(p.partDataMark, final)
}

// span returns the marked run ending at end, or nil if there's no mark or the run is empty.
func span(data []byte, mark, end int) []byte {
	if mark == unmarked || mark >= end {
		return nil
	}

	return data[mark:end]
}

func remark(mark int, final bool) int {
	if mark == unmarked || final {
		return unmarked
	}

	return 0
}

func isAlpha(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}
