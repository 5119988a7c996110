// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import "errors"

// Sentinel errors for save container operations. Use errors.Is in callers.
var (
	// ErrTruncatedStream means the stream ended before a length prefix or its payload was complete.
	ErrTruncatedStream = errors.New("truncated save stream")
	// ErrUnrepresentableCharacter means a name character does not fit one 16-bit code unit.
	ErrUnrepresentableCharacter = errors.New("character does not fit 16-bit code unit")
	// ErrSizeOverflow means the size exceeds the uint32 length prefix or configured entry limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 length prefix or entry limit")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrInvalidEntryName means an input entry name is empty.
	ErrInvalidEntryName = errors.New("invalid entry name")
	// ErrDuplicateEntryName means two inputs use the same entry name.
	ErrDuplicateEntryName = errors.New("duplicate entry name")
	// ErrInvalidExtractPath means an entry name is not safe to use as an output file name.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrValidationFailed means a freshly written container did not reproduce its source files.
	ErrValidationFailed = errors.New("round-trip validation failed")
	// ErrNotSaveFile means the path does not point to a regular .save file.
	ErrNotSaveFile = errors.New("not a save file")
)
