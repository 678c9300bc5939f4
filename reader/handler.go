package reader

import (
	"github.com/indigo-web/multipart/kv"
)

// Handler receives whole parts. Headers, including the strings they hold, as well as the
// data slices, are valid only until the part ends. Use kv.Storage.Clone together with
// strings.Clone, or copy the data, in order to retain them.
type Handler interface {
	OnPartBegin(headers *kv.Storage)
	OnPartData(data []byte)
	OnPartEnd()
	OnEnd()
}

// Stopper may additionally be implemented by a Handler which wants to stop the reading. Once
// Err returns an error, the reader fails with it and delivers no more events.
type Stopper interface {
	Err() error
}

// Funcs adapts plain functions to the Handler interface. Nil functions are skipped.
type Funcs struct {
	PartBegin func(headers *kv.Storage)
	PartData  func(data []byte)
	PartEnd   func()
	End       func()
}

func (f Funcs) OnPartBegin(headers *kv.Storage) {
	if f.PartBegin != nil {
		f.PartBegin(headers)
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
