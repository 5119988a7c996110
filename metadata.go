// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"fmt"
	"io"
	"os"
)

// ListEntries opens a save container and returns entry metadata in stored order.
func ListEntries(path string) ([]EntryInfo, error) {
	return ListEntriesWithOptions(path, ReaderOptions{})
}

// ListEntriesWithOptions opens a save container and returns entry metadata using reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions) ([]EntryInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open save: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ListEntriesFromReader(f, opts)
}

// ListEntriesFromReader decodes a save container stream and returns entry metadata.
// Payloads are still decompressed since the format has no separate index.
func ListEntriesFromReader(r io.Reader, opts ReaderOptions) ([]EntryInfo, error) {
	infos := make([]EntryInfo, 0, 8)
	err := scanEntries(r, opts, func(offset int64, entry Entry) error {
		infos = append(infos, entryInfoOf(entry, offset))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// entryInfoOf builds metadata for an in-memory entry.
func entryInfoOf(entry Entry, offset int64) EntryInfo {
	return EntryInfo{
		Name:   entry.Name,
		Size:   uint32(len(entry.Data)), //nolint:gosec // bounded by u32 length prefix
		Offset: offset,
	}
}
