// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// extractWorkItem stores one selected entry with prepared output file name.
type extractWorkItem struct {
	fileName string
	entry    Entry
}

// ExtractFile decodes the save container at savePath and writes its entries to dstDir.
func ExtractFile(ctx context.Context, savePath string, dstDir string, opts ExtractOptions) error {
	entries, err := ReadFileEntries(savePath, ReaderOptions{})
	if err != nil {
		return err
	}

	return Extract(ctx, entries, dstDir, opts)
}

// Extract writes entries to dstDir, one file per entry named after the entry.
// Repeated names resolve to the last occurrence, like Decode does.
// Without SanitizeNames, an entry name that is not a plain file name fails the whole call
// before anything is written.
func Extract(ctx context.Context, entries []Entry, dstDir string, opts ExtractOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fileMode := opts.FileMode
	if fileMode == "" {
		fileMode = ExtractFileModeAuto
	}

	entries = dedupeEntries(entries)
	workItems, err := prepareExtractWorkItems(entries, opts.SanitizeNames)
	if err != nil {
		return err
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, task := range workItems {
		if err := ctx.Err(); err != nil {
			return err
		}

		outPath, err := extractPreparedEntry(dstRootAbs, task, fileMode)
		if err != nil {
			return err
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(task.entry.Name, len(task.entry.Data), outPath)
		}
	}

	return nil
}

// dedupeEntries keeps the last entry for each name, in order of first appearance.
func dedupeEntries(entries []Entry) []Entry {
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if idx, ok := index[entry.Name]; ok {
			out[idx] = entry
			continue
		}

		index[entry.Name] = len(out)
		out = append(out, entry)
	}

	return out
}

// prepareExtractWorkItems validates entry names and resolves output file names.
func prepareExtractWorkItems(entries []Entry, sanitize bool) ([]extractWorkItem, error) {
	workItems := make([]extractWorkItem, len(entries))
	if sanitize {
		names, err := sanitizeEntryNames(entries)
		if err != nil {
			return nil, err
		}

		for i := range entries {
			workItems[i] = extractWorkItem{fileName: names[i], entry: entries[i]}
		}

		return workItems, nil
	}

	for i := range entries {
		fileName, err := normalizeExtractName(entries[i].Name)
		if err != nil {
			return nil, fmt.Errorf("entry name %q: %w", entries[i].Name, err)
		}

		workItems[i] = extractWorkItem{fileName: fileName, entry: entries[i]}
	}

	return workItems, nil
}

// extractPreparedEntry writes one prepared work item to destination root.
func extractPreparedEntry(dstRootAbs string, task extractWorkItem, fileMode ExtractFileMode) (string, error) {
	outPath := filepath.Join(dstRootAbs, task.fileName)

	file, err := openExtractFile(outPath, fileMode)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", task.entry.Name, err)
	}

	_, writeErr := file.Write(task.entry.Data)
	closeErr := file.Close()
	if writeErr != nil {
		return "", fmt.Errorf("write %s: %w", task.entry.Name, writeErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("close %s: %w", task.entry.Name, closeErr)
	}

	return outPath, nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
