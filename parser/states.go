package parser

// State is the parser's persisted mode. The zero value is Error, which is also how an
// unconfigured parser looks from the outside.
type State uint8

const (
	Error State = iota
	Start
	StartBoundary
	HeaderFieldStart
	HeaderField
	HeaderValueStart
	HeaderValue
	HeaderValueAlmostDone
	HeadersAlmostDone
	PartDataStart
	PartData
	PartEnd
	End
)

var stateNames = [...]string{
	Error:                 "Error",
	Start:                 "Start",
	StartBoundary:         "StartBoundary",
	HeaderFieldStart:      "HeaderFieldStart",
	HeaderField:           "HeaderField",
	HeaderValueStart:      "HeaderValueStart",
	HeaderValue:           "HeaderValue",
	HeaderValueAlmostDone: "HeaderValueAlmostDone",
	HeadersAlmostDone:     "HeadersAlmostDone",
	PartDataStart:         "PartDataStart",
	PartData:              "PartData",
	PartEnd:               "PartEnd",
	End:                   "End",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "Unknown"
}

// Terminal reports whether no further input can be consumed in the state.
func (s State) Terminal() bool {
	return s == Error || s == End
}

type boundaryFlags uint8

const (
	partBoundary boundaryFlags = 1 << iota
	lastBoundary
)

// unmarked is the value of a mark which doesn't point at anything.
const unmarked = -1
