package main

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestDechunker(t *testing.T) {
	t.Run("any buffer size", func(t *testing.T) {
		encoded := "5\r\nHello\r\n7\r\n, world\r\n0\r\n\r\n"
		for size := 1; size <= len(encoded); size++ {
			data, err := io.ReadAll(newDechunker(strings.NewReader(encoded), size))
			require.NoError(t, err, size)
			require.Equal(t, "Hello, world", string(data), size)
		}
	})

	t.Run("small reads", func(t *testing.T) {
		encoded := "a\r\n0123456789\r\n0\r\n\r\n"
		data, err := io.ReadAll(iotest.OneByteReader(newDechunker(strings.NewReader(encoded), 4)))
		require.NoError(t, err)
		require.Equal(t, "0123456789", string(data))
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := io.ReadAll(newDechunker(strings.NewReader("5\r\nHel"), 16))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := io.ReadAll(newDechunker(strings.NewReader("zz\r\nHello\r\n0\r\n\r\n"), 16))
		require.Error(t, err)
		require.NotErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
