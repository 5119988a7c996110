// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// countingWriter counts bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

// Write forwards p to the underlying writer and records written count.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// newDecompressor wraps src with gzip decompression.
// Multistream mode is kept so concatenated gzip members read as one archive stream.
func newDecompressor(src io.Reader) (*gzip.Reader, error) {
	zr, err := gzip.NewReader(src)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing gzip header", ErrTruncatedStream)
		}

		return nil, fmt.Errorf("open gzip stream: %w", err)
	}

	return zr, nil
}

// newCompressor wraps dst with gzip compression at level.
func newCompressor(dst io.Writer, level int) (*gzip.Writer, error) {
	zw, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return nil, fmt.Errorf("create gzip stream: %w", err)
	}

	return zw, nil
}
