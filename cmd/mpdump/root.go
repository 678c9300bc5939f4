package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/indigo-web/multipart/boundary"
	"github.com/indigo-web/multipart/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var errBadChunkSize = errors.New("chunk size must be positive")

type options struct {
	boundary    string
	contentType string
	chunkSize   int
	raw         bool
	json        bool
	chunked     bool
	sum         bool
	noColor     bool
	verbosity   int
}

func (o options) token() (string, error) {
	if len(o.boundary) > 0 {
		return o.boundary, nil
	}

	token, err := boundary.FromContentType(o.contentType)
	if err != nil {
		return "", fmt.Errorf("content type: %w", err)
	}

	return token, nil
}

func newRootCmd() *cobra.Command {
	opts := options{
		chunkSize: config.Default().Reader.ReadBufferSize,
	}

	cmd := &cobra.Command{
		Use:   "mpdump [file]",
		Short: "Dump the parts of a multipart stream",
		Long: `Parse a multipart stream and print its parts.

Reads the file if provided, otherwise stdin. The boundary is given either directly
or as the Content-Type header value it's carried in.

Use --raw to see the low-level parser events as they are emitted for every fed chunk.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts)

			err := run(cmd, args, opts, logger)
			if err != nil {
				logger.Error("dump failed", "error", err)
			}

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.boundary, "boundary", "b", "", "boundary token")
	flags.StringVar(&opts.contentType, "content-type", "", "Content-Type header value carrying the boundary")
	flags.IntVarP(&opts.chunkSize, "chunk-size", "c", opts.chunkSize, "bytes fed to the parser at once")
	flags.BoolVar(&opts.raw, "raw", false, "print parser events instead of assembled parts")
	flags.BoolVar(&opts.json, "json", false, "print JSON lines")
	flags.BoolVar(&opts.chunked, "chunked", false, "input is transfer-encoded as chunked")
	flags.BoolVar(&opts.sum, "sum", false, "print xxhash64 of every part body")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored logs")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "how verbose to be, can use multiple")

	cmd.MarkFlagsMutuallyExclusive("boundary", "content-type")
	cmd.MarkFlagsOneRequired("boundary", "content-type")

	return cmd
}

func newLogger(w io.Writer, opts options) *slog.Logger {
	level := slog.LevelWarn
	switch opts.verbosity {
	case 0:
	case 1:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.noColor,
	}))
}

func run(cmd *cobra.Command, args []string, opts options, logger *slog.Logger) error {
	if opts.chunkSize <= 0 {
		return errBadChunkSize
	}

	token, err := opts.token()
	if err != nil {
		return err
	}

	src := cmd.InOrStdin()
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}

		defer file.Close()
		src = file
	}

	if opts.chunked {
		src = newDechunker(src, opts.chunkSize)
	}

	out := newPrinter(cmd.OutOrStdout(), opts.json)
	logger.Debug("parsing", "boundary", token, "chunk_size", opts.chunkSize)

	if opts.raw {
		return dumpEvents(src, token, opts.chunkSize, out, logger)
	}

	return dumpParts(src, token, opts, out, logger)
}
