// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	// defaultPackCopyBufferPool reuses payload copy buffers between Encode calls.
	defaultPackCopyBufferPool = sync.Pool{
		New: func() any {
			return new([packCopyBufferSize]byte)
		},
	}
)

const (
	// packCopyBufferSize is per-encode temporary buffer used by bounded payload reads.
	packCopyBufferSize = 64 * 1024
)

// BytesInput returns an Input serving data from memory.
func BytesInput(name string, data []byte) Input {
	return Input{
		Name:     name,
		SizeHint: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Encode writes a save container to out from the given inputs.
// Inputs are sorted by name (byte order) for deterministic output; zero inputs
// produce a valid empty container.
func Encode(ctx context.Context, out io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	startedAt := time.Now()

	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	cw := &countingWriter{w: out}
	zw, err := newCompressor(cw, opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	pw := &primitiveWriter{bw: bufio.NewWriterSize(zw, opts.WriterBufferSize)}

	copyBuf, releaseCopyBuffer := acquirePackCopyBuffer()
	defer releaseCopyBuffer()

	var dataSize int64
	for i := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := readInputPayload(plan[i], copyBuf)
		if err != nil {
			return nil, err
		}

		offset := pw.off
		if err := encodeEntry(pw, Entry{Name: plan[i].Name, Data: data}); err != nil {
			return nil, err
		}

		dataSize += int64(len(data))
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Name:     plan[i].Name,
				Offset:   offset,
				DataSize: uint32(len(data)), //nolint:gosec // bounded by readInputPayload
			})
		}
	}

	if err := pw.bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush entries: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close gzip stream: %w", err)
	}

	return &PackResult{
		WrittenEntries: len(plan),
		DataSize:       dataSize,
		RawSize:        pw.off,
		CompressedSize: cw.n,
		Duration:       time.Since(startedAt),
	}, nil
}

// EncodeFile writes a save container to outPath. A failed encode leaves no output file behind.
func EncodeFile(ctx context.Context, outPath string, inputs []Input, opts PackOptions) (*PackResult, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create save file: %w", err)
	}

	res, err := Encode(ctx, f, inputs, opts)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return nil, err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("sync save file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("close save file: %w", err)
	}

	return res, nil
}

// EncodeMap writes a save container from in-memory files.
func EncodeMap(ctx context.Context, out io.Writer, files map[string][]byte, opts PackOptions) (*PackResult, error) {
	inputs := make([]Input, 0, len(files))
	for name, data := range files {
		inputs = append(inputs, BytesInput(name, data))
	}

	return Encode(ctx, out, inputs, opts)
}

// acquirePackCopyBuffer returns reusable payload copy buffer and release callback.
func acquirePackCopyBuffer() ([]byte, func()) {
	arr := defaultPackCopyBufferPool.Get().(*[packCopyBufferSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers
	buf := arr[:]

	return buf, func() {
		defaultPackCopyBufferPool.Put(arr)
	}
}

// preparePackPlan validates and sorts encode inputs by name.
// Names must be non-empty, storable as code units, and unique.
func preparePackPlan(inputs []Input) ([]Input, error) {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)

	for i := range sorted {
		if sorted[i].Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidEntryName)
		}

		if err := CheckName(sorted[i].Name); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	if err := validateUniqueEntryNames(sorted); err != nil {
		return nil, err
	}

	return sorted, nil
}

// readInputPayload opens one input and reads its full payload within the u32 limit.
func readInputPayload(in Input, copyBuf []byte) ([]byte, error) {
	if in.Open == nil {
		return nil, fmt.Errorf("input %s: Open is nil", in.Name)
	}

	rc, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", in.Name, err)
	}

	data, readErr := readPayloadBounded(rc, maxPrefixValue, in.SizeHint, copyBuf)
	closeErr := rc.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read input %s: %w", in.Name, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close input %s: %w", in.Name, closeErr)
	}

	return data, nil
}

// readPayloadBounded reads whole payload into memory with strict max-size enforcement.
func readPayloadBounded(src io.Reader, limit int64, sizeHint int64, copyBuf []byte) ([]byte, error) {
	var dst bytes.Buffer
	if sizeHint > 0 && sizeHint <= readGrowLimit*16 {
		dst.Grow(int(sizeHint))
	}

	written, err := copyPayloadBounded(&dst, src, limit, copyBuf)
	if err != nil {
		return nil, err
	}
	if int64(dst.Len()) != written {
		return nil, fmt.Errorf("short read into memory (%d/%d)", dst.Len(), written)
	}

	if written == 0 {
		return []byte{}, nil
	}

	return dst.Bytes(), nil
}

// copyPayloadBounded streams payload from src to dst and enforces strict size limit.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit int64, buf []byte) (int64, error) {
	if dst == nil {
		return 0, ErrNilWriter
	}
	if src == nil {
		return 0, ErrNilReader
	}
	if limit < 0 {
		return 0, ErrSizeOverflow
	}
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}

	var written int64
	emptyReads := 0
	for written < limit {
		chunkSize := len(buf)
		remaining := limit - written
		if int64(chunkSize) > remaining {
			chunkSize = int(remaining)
		}

		n, readErr := src.Read(buf[:chunkSize])
		if n > 0 {
			emptyReads = 0
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}
		if n == 0 && readErr == nil {
			emptyReads++
			if emptyReads > 100 {
				return written, io.ErrNoProgress
			}

			continue
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}

			return written, readErr
		}
	}

	// If we consumed exactly the limit, probe one extra byte to ensure source is not longer.
	if written == limit {
		var probe [1]byte
		n, err := src.Read(probe[:])
		if n > 0 {
			return written, ErrSizeOverflow
		}
		if err != nil && err != io.EOF {
			return written, err
		}
	}

	return written, nil
}

// validateUniqueEntryNames ensures there are no duplicate names in a sorted input list.
// Names are compared exactly; the container format is case-sensitive.
func validateUniqueEntryNames(sorted []Input) error {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryName, sorted[i].Name)
		}
	}

	return nil
}
