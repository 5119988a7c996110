// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	sizeOfU32      = 4              // length prefix size in bytes
	sizeOfCodeUnit = 2              // one name character in bytes
	maxCodeUnit    = math.MaxUint16 // largest code point a name character may carry
	maxPrefixValue = math.MaxUint32 // largest value a length prefix can hold
)

// Default tuning values.
const (
	DefaultWriteBuffer      = 64 * 1024
	DefaultReadBuffer       = 64 * 1024
	DefaultCompressionLevel = gzip.DefaultCompression
	DefaultSaveExt          = ".save"
)

// Entry is one named byte blob stored in a save container.
type Entry struct {
	// Name is the entry file name as stored in the container.
	Name string `json:"name" yaml:"name"`
	// Data is the raw entry content.
	Data []byte `json:"-" yaml:"-"`
}

// EntryInfo describes a single decoded entry without its payload.
type EntryInfo struct {
	// Name is the entry file name as stored in the container.
	Name string `json:"name" yaml:"name"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Offset is byte offset of the entry record in the decompressed stream.
	Offset int64 `json:"offset" yaml:"offset"`
}

// Input describes one source stream to be encoded into a container entry.
type Input struct {
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Name is destination entry name inside the container.
	Name string `json:"name" yaml:"name"`
	// SizeHint is expected size in bytes (zero when unknown).
	SizeHint int64 `json:"size_hint,omitempty" yaml:"size_hint,omitempty"`
}

// PackEntryProgress contains one completed entry write event from encode flow.
type PackEntryProgress struct {
	// Name is entry name written to container.
	Name string `json:"name" yaml:"name"`
	// Offset is record offset in the decompressed stream.
	Offset int64 `json:"offset" yaml:"offset"`
	// DataSize is payload size in bytes.
	DataSize uint32 `json:"data_size" yaml:"data_size"`
}

// PackOptions configures encode behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry is fully written to the compressing stream.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// CompressionLevel is gzip level; zero value selects DefaultCompressionLevel.
	// Use gzip.NoCompression explicitly via StoreOnly.
	CompressionLevel int `json:"compression_level,omitempty" yaml:"compression_level,omitempty"`
	// StoreOnly writes gzip framing without deflate compression.
	StoreOnly bool `json:"store_only,omitempty" yaml:"store_only,omitempty"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// PackResult contains encode output statistics.
type PackResult struct {
	// WrittenEntries is number of entries written to container.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// DataSize is total entry payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// RawSize is total decompressed stream size including names and length prefixes.
	RawSize int64 `json:"raw_size" yaml:"raw_size"`
	// CompressedSize is number of bytes written to the destination.
	CompressedSize int64 `json:"compressed_size" yaml:"compressed_size"`
	// Duration is end-to-end encode duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ReaderOptions configures decode behavior.
type ReaderOptions struct {
	// MaxEntrySize rejects entries whose data length prefix is larger (zero means uint32 max).
	MaxEntrySize uint32 `json:"max_entry_size,omitempty" yaml:"max_entry_size,omitempty"`
	// ReadBufferSize is buffered reader size over the decompressed stream.
	ReadBufferSize int `json:"read_buffer_size,omitempty" yaml:"read_buffer_size,omitempty"`
}

// DirOptions configures how a directory is turned into encode inputs.
type DirOptions struct {
	// Exclude defines ordered path rules; matched file names are left out of the container.
	Exclude []pathrules.Rule `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// ExcludeMatcherOptions control exclude rule matching.
	ExcludeMatcherOptions pathrules.MatcherOptions `json:"exclude_matcher_options,omitzero" yaml:"exclude_matcher_options,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(name string, size int, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// SanitizeNames rewrites entry names to filesystem-safe output names.
	// When false (default), names that are unsafe as plain file names are rejected.
	SanitizeNames bool `json:"sanitize_names,omitempty" yaml:"sanitize_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// ExportOptions configures the validated replace flow.
type ExportOptions struct {
	// PackOptions are applied while writing the new container.
	PackOptions PackOptions `json:"pack_options,omitzero" yaml:"pack_options,omitempty"`
	// DirOptions select which files of the source directory are packed.
	DirOptions DirOptions `json:"dir_options,omitzero" yaml:"dir_options,omitempty"`
	// BackupPath overrides default `<save>.bak` backup location.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	// BackupKeep controls how many backup generations are kept.
	// 0 means no backup, 1 keeps only `<backup>`, N keeps `<backup>` + `<backup>.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}

	if opts.StoreOnly {
		opts.CompressionLevel = gzip.NoCompression
		return
	}

	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = DefaultCompressionLevel
	}
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.MaxEntrySize == 0 {
		opts.MaxEntrySize = maxPrefixValue
	}

	if opts.ReadBufferSize < 16 {
		opts.ReadBufferSize = DefaultReadBuffer
	}
}

// applyDefaults fills zero-valued directory options with defaults.
func (opts *DirOptions) applyDefaults() {
	if opts.ExcludeMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.ExcludeMatcherOptions = pathrules.MatcherOptions{
			DefaultAction: pathrules.ActionInclude,
		}
	}

	if opts.ExcludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.ExcludeMatcherOptions.DefaultAction = pathrules.ActionInclude
	}
}

// applyDefaults fills zero-valued export options with defaults.
func (opts *ExportOptions) applyDefaults() {
	opts.PackOptions.applyDefaults()
	opts.DirOptions.applyDefaults()

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
