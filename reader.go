// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Decode reads a save container and returns entry data by name.
// A later entry with an already seen name replaces the earlier one.
func Decode(r io.Reader) (map[string][]byte, error) {
	entries, err := DecodeEntries(r, ReaderOptions{})
	if err != nil {
		return nil, err
	}

	return entriesToMap(entries), nil
}

// DecodeFile opens a save container by path and returns entry data by name.
func DecodeFile(path string) (map[string][]byte, error) {
	entries, err := ReadFileEntries(path, ReaderOptions{})
	if err != nil {
		return nil, err
	}

	return entriesToMap(entries), nil
}

// ReadFileEntries opens a save container by path and decodes entries in stored order.
func ReadFileEntries(path string, opts ReaderOptions) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open save: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeEntries(f, opts)
}

// DecodeEntries reads a save container and returns entries in stored order, duplicates included.
// Any decode failure discards everything read so far.
func DecodeEntries(r io.Reader, opts ReaderOptions) ([]Entry, error) {
	entries := make([]Entry, 0, 8)
	err := scanEntries(r, opts, func(_ int64, entry Entry) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// scanEntries decodes entries one by one and passes each to fn with its record offset.
// End of archive is reached only when no byte is left; 1..3 leftover bytes are truncation.
func scanEntries(r io.Reader, opts ReaderOptions, fn func(offset int64, entry Entry) error) error {
	if r == nil {
		return ErrNilReader
	}

	opts.applyDefaults()

	zr, err := newDecompressor(r)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()

	pr := &primitiveReader{
		br:           bufio.NewReaderSize(zr, opts.ReadBufferSize),
		maxEntrySize: opts.MaxEntrySize,
	}

	for {
		available, err := pr.remaining()
		if err != nil {
			return err
		}

		if available == 0 {
			return nil
		}

		if available < sizeOfU32 {
			return fmt.Errorf("%w: %d trailing bytes at offset %d", ErrTruncatedStream, available, pr.off)
		}

		offset := pr.off
		entry, err := decodeEntry(pr)
		if err != nil {
			return fmt.Errorf("decode entry at offset %d: %w", offset, err)
		}

		if err := fn(offset, entry); err != nil {
			return err
		}
	}
}

// entriesToMap indexes entries by name with last-write-wins semantics.
func entriesToMap(entries []Entry) map[string][]byte {
	out := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		out[entry.Name] = entry.Data
	}

	return out
}
