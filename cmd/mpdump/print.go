package main

import (
	"fmt"
	"io"
	"strconv"

	json "github.com/json-iterator/go"
)

type event struct {
	Event string `json:"event"`
	Data  string `json:"data,omitempty"`
}

type header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type partRecord struct {
	Index    int      `json:"index"`
	Name     string   `json:"name,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Headers  []header `json:"headers"`
	Size     int64    `json:"size"`
	Sum      string   `json:"xxhash,omitempty"`
}

// printer writes records either as JSON lines or as human-readable text.
type printer struct {
	w   io.Writer
	enc *json.Encoder
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	p := &printer{w: w}
	if asJSON {
		p.enc = json.NewEncoder(w)
	}

	return p
}

func (p *printer) event(e event) error {
	if p.enc != nil {
		return p.enc.Encode(e)
	}

	if len(e.Data) == 0 {
		_, err := fmt.Fprintln(p.w, e.Event)
		return err
	}

	_, err := fmt.Fprintf(p.w, "%s %s\n", e.Event, strconv.Quote(e.Data))
	return err
}

func (p *printer) part(r partRecord) error {
	if p.enc != nil {
		return p.enc.Encode(r)
	}

	line := fmt.Sprintf("part %d: size=%d", r.Index, r.Size)
	if len(r.Name) > 0 {
		line += " name=" + strconv.Quote(r.Name)
	}

	if len(r.Filename) > 0 {
		line += " filename=" + strconv.Quote(r.Filename)
	}

	if len(r.Sum) > 0 {
		line += " xxhash=" + r.Sum
	}

	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return err
	}

	for _, h := range r.Headers {
		if _, err := fmt.Fprintf(p.w, "  %s: %s\n", h.Key, h.Value); err != nil {
			return err
		}
	}

	return nil
}
