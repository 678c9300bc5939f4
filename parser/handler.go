package parser

// Handler receives the events recognized by the Parser.
//
// Every slice passed to a handler is borrowed from the buffer given to Feed and is valid
// only until the callback returns; copy whatever must outlive it. A logical header field,
// header value or part body may arrive split into several consecutive calls when it
// straddles Feed calls. Empty slices are never delivered.
//
// Handlers must not call Feed on the parser they are invoked from.
type Handler interface {
	OnPartBegin()
	OnHeaderField(data []byte)
	OnHeaderValue(data []byte)
	OnPartData(data []byte)
	OnPartEnd()
	OnEnd()
}

// HeaderCompleter may additionally be implemented by a Handler which needs to know where
// header lines end. OnHeaderComplete is called after each header line, OnHeadersComplete
// after the blank line terminating the header block of a part.
type HeaderCompleter interface {
	OnHeaderComplete()
	OnHeadersComplete()
}

// Funcs adapts plain functions to the Handler interface. Nil functions are skipped. Any
// context the callbacks need is simply captured by the closures.
type Funcs struct {
	PartBegin       func()
	HeaderField     func(data []byte)
	HeaderValue     func(data []byte)
	PartData        func(data []byte)
	PartEnd         func()
	End             func()
	HeaderComplete  func()
	HeadersComplete func()
}

func (f Funcs) OnPartBegin() {
	if f.PartBegin != nil {
		f.PartBegin()
	}
}

func (f Funcs) OnHeaderField(data []byte) {
	if f.HeaderField != nil {
		f.HeaderField(data)
	}
}

func (f Funcs) OnHeaderValue(data []byte) {
	if f.HeaderValue != nil {
		f.HeaderValue(data)
	}
}

func (f Funcs) OnPartData(data []byte) {
	if f.PartData != nil {
		f.PartData(data)
	}
}

func (f Funcs) OnPartEnd() {
	if f.PartEnd != nil {
		f.PartEnd()
	}
}

func (f Funcs) OnEnd() {
	if f.End != nil {
		f.End()
	}
}

func (f Funcs) OnHeaderComplete() {
	if f.HeaderComplete != nil {
		f.HeaderComplete()
	}
}

func (f Funcs) OnHeadersComplete() {
	if f.HeadersComplete != nil {
		f.HeadersComplete()
	}
}

type nopHandler struct{}

func (nopHandler) OnPartBegin()         {}
func (nopHandler) OnHeaderField([]byte) {}
func (nopHandler) OnHeaderValue([]byte) {}
func (nopHandler) OnPartData([]byte)    {}
func (nopHandler) OnPartEnd()           {}
func (nopHandler) OnEnd()               {}
func (nopHandler) OnHeaderComplete()    {}
func (nopHandler) OnHeadersComplete()   {}
