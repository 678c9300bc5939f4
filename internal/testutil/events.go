package testutil

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	PartBegin Kind = iota + 1
	HeaderField
	HeaderValue
	PartData
	PartEnd
	End
	HeaderComplete
	HeadersComplete
)

var kindNames = [...]string{
	PartBegin:       "PartBegin",
	HeaderField:     "HeaderField",
	HeaderValue:     "HeaderValue",
	PartData:        "PartData",
	PartEnd:         "PartEnd",
	End:             "End",
	HeaderComplete:  "HeaderComplete",
	HeadersComplete: "HeadersComplete",
}

func (k Kind) String() string {
	return kindNames[k]
}

type Event struct {
	Kind Kind
	Data string
}

func (e Event) String() string {
	if len(e.Data) == 0 {
		return e.Kind.String()
	}

	return fmt.Sprintf("%s(%q)", e.Kind, e.Data)
}

// Recorder is a parser handler which memorizes every event. Consecutive data events of the
// same kind are glued together, so recordings of the same stream are equal regardless of
// how the stream was split. Raw is the number of callbacks actually invoked, Empty counts
// ones carrying an empty slice.
type Recorder struct {
	Events []Event
	Raw    int
	Empty  int
}

func NewRecorder() *Recorder {
	return new(Recorder)
}

func (r *Recorder) OnPartBegin()       { r.signal(PartBegin) }
func (r *Recorder) OnPartEnd()         { r.signal(PartEnd) }
func (r *Recorder) OnEnd()             { r.signal(End) }
func (r *Recorder) OnHeaderComplete()  { r.signal(HeaderComplete) }
func (r *Recorder) OnHeadersComplete() { r.signal(HeadersComplete) }

func (r *Recorder) OnHeaderField(data []byte) { r.data(HeaderField, data) }
func (r *Recorder) OnHeaderValue(data []byte) { r.data(HeaderValue, data) }
func (r *Recorder) OnPartData(data []byte)    { r.data(PartData, data) }

func (r *Recorder) signal(kind Kind) {
	r.Raw++
	r.Events = append(r.Events, Event{Kind: kind})
}

func (r *Recorder) data(kind Kind, data []byte) {
	r.Raw++
	if len(data) == 0 {
		r.Empty++
	}

	if last := len(r.Events) - 1; last >= 0 && r.Events[last].Kind == kind {
		r.Events[last].Data += string(data)
		return
	}

	r.Events = append(r.Events, Event{Kind: kind, Data: string(data)})
}

// Count returns how many events of the kind were recorded.
func (r *Recorder) Count(kind Kind) (n int) {
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// Bodies returns the glued payload of each part.
func (r *Recorder) Bodies() (bodies []string) {
	var (
		body   strings.Builder
		inPart bool
	)

	for _, e := range r.Events {
		switch e.Kind {
		case PartBegin:
			body.Reset()
			inPart = true
		case PartData:
			body.WriteString(e.Data)
		case PartEnd:
			if inPart {
				bodies = append(bodies, body.String())
			}

			inPart = false
		}
	}

	return bodies
}

// Scatter splits the data into pieces of the step length. The last piece may be shorter.
func Scatter(b []byte, step int) (pieces [][]byte) {
	for i := 0; i < len(b); i += step {
		pieces = append(pieces, b[i:min(i+step, len(b))])
	}

	return pieces
}
