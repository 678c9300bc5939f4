package main

import (
	"hash"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/indigo-web/multipart/config"
	"github.com/indigo-web/multipart/kv"
	"github.com/indigo-web/multipart/parser"
	"github.com/indigo-web/multipart/reader"
)

// eventDumper prints every parser event as is, so splits caused by chunking stay visible.
type eventDumper struct {
	out *printer
	err error
}

func (e *eventDumper) emit(name string, data []byte) {
	if e.err == nil {
		e.err = e.out.event(event{Event: name, Data: string(data)})
	}
}

func (e *eventDumper) OnPartBegin()              { e.emit("part-begin", nil) }
func (e *eventDumper) OnHeaderField(data []byte) { e.emit("header-field", data) }
func (e *eventDumper) OnHeaderValue(data []byte) { e.emit("header-value", data) }
func (e *eventDumper) OnHeaderComplete()         { e.emit("header-complete", nil) }
func (e *eventDumper) OnHeadersComplete()        { e.emit("headers-complete", nil) }
func (e *eventDumper) OnPartData(data []byte)    { e.emit("part-data", data) }
func (e *eventDumper) OnPartEnd()                { e.emit("part-end", nil) }
func (e *eventDumper) OnEnd()                    { e.emit("end", nil) }

func dumpEvents(src io.Reader, token string, chunkSize int, out *printer, logger *slog.Logger) error {
	dumper := &eventDumper{out: out}
	p, err := parser.New(token, dumper)
	if err != nil {
		return err
	}

	var (
		buff  = make([]byte, chunkSize)
		total int64
	)

	for !p.Stopped() {
		n, readErr := src.Read(buff)
		if n > 0 {
			consumed := p.Feed(buff[:n])
			total += int64(consumed)
			logger.Debug("fed", "bytes", n, "consumed", consumed, "state", p.State())
		}

		if dumper.err != nil {
			return dumper.err
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return readErr
		}
	}

	if err = p.Err(); err != nil {
		return err
	}

	if !p.Succeeded() {
		return io.ErrUnexpectedEOF
	}

	logger.Info("stream parsed", "bytes", total)
	return nil
}

// partDumper prints the assembled parts.
type partDumper struct {
	out    *printer
	sum    bool
	hasher hash.Hash64
	record partRecord
	parts  int
	err    error
}

func (d *partDumper) OnPartBegin(headers *kv.Storage) {
	d.parts++
	name, filename, _ := reader.Disposition(headers)
	d.record = partRecord{
		Index:    d.parts,
		Name:     strings.Clone(name),
		Filename: strings.Clone(filename),
		Headers:  make([]header, 0, headers.Len()),
	}

	for key, value := range headers.Pairs() {
		d.record.Headers = append(d.record.Headers, header{
			Key:   strings.Clone(key),
			Value: strings.Clone(value),
		})
	}

	if d.sum {
		d.hasher.Reset()
	}
}

func (d *partDumper) OnPartData(data []byte) {
	d.record.Size += int64(len(data))
	if d.sum {
		_, _ = d.hasher.Write(data)
	}
}

func (d *partDumper) OnPartEnd() {
	if d.sum {
		d.record.Sum = strconv.FormatUint(d.hasher.Sum64(), 16)
	}

	d.err = d.out.part(d.record)
}

func (d *partDumper) OnEnd() {}

func (d *partDumper) Err() error {
	return d.err
}

func dumpParts(src io.Reader, token string, opts options, out *printer, logger *slog.Logger) error {
	cfg := config.Default()
	cfg.Reader.ReadBufferSize = opts.chunkSize

	dumper := &partDumper{
		out:    out,
		sum:    opts.sum,
		hasher: xxhash.New(),
	}

	r := reader.New(cfg, dumper)
	if err := r.Reset(token); err != nil {
		return err
	}

	total, err := r.ReadFrom(src)
	if err != nil {
		return err
	}

	logger.Info("stream parsed", "bytes", total, "parts", dumper.parts)
	return nil
}
