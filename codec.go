// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// readGrowLimit caps up-front allocation driven by untrusted length prefixes.
const readGrowLimit = 1 << 20

// primitiveReader decodes fixed-width integers, names and blobs from decompressed stream.
type primitiveReader struct {
	br *bufio.Reader
	// off is number of decompressed bytes consumed so far.
	off int64
	// maxEntrySize bounds accepted data length prefixes.
	maxEntrySize uint32
}

// primitiveWriter encodes fixed-width integers, names and blobs into compressing stream.
type primitiveWriter struct {
	bw *bufio.Writer
	// off is number of decompressed bytes produced so far.
	off int64
}

// readU32 consumes exactly 4 bytes as little-endian uint32.
func (r *primitiveReader) readU32() (uint32, error) {
	var buf [sizeOfU32]byte
	n, err := io.ReadFull(r.br, buf[:])
	r.off += int64(n)
	if err != nil {
		return 0, truncatedOr(err, sizeOfU32, int64(n))
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

// readString reads u32 character count followed by that many 2-byte code units.
func (r *primitiveReader) readString() (string, error) {
	count, err := r.readU32()
	if err != nil {
		return "", fmt.Errorf("read name length: %w", err)
	}

	units, err := r.readExact(int64(count) * sizeOfCodeUnit)
	if err != nil {
		return "", fmt.Errorf("read name: %w", err)
	}

	return decodeCodeUnits(units), nil
}

// readBytes reads u32 byte count followed by that many raw bytes.
func (r *primitiveReader) readBytes() ([]byte, error) {
	size, err := r.readU32()
	if err != nil {
		return nil, fmt.Errorf("read data length: %w", err)
	}

	if size > r.maxEntrySize {
		return nil, fmt.Errorf("%w: entry data %d bytes, limit %d", ErrSizeOverflow, size, r.maxEntrySize)
	}

	data, err := r.readExact(int64(size))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	return data, nil
}

// readExact reads exactly n bytes without trusting n for one large allocation.
func (r *primitiveReader) readExact(n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	buf.Grow(int(min(n, readGrowLimit)))

	copied, err := io.CopyN(&buf, r.br, n)
	r.off += copied
	if err != nil {
		return nil, truncatedOr(err, n, copied)
	}

	return buf.Bytes(), nil
}

// remaining peeks up to one length prefix ahead without consuming it.
// It returns number of bytes available (0..4); 4 means another entry follows.
func (r *primitiveReader) remaining() (int, error) {
	peeked, err := r.br.Peek(sizeOfU32)
	if err != nil && err != io.EOF {
		if err == io.ErrUnexpectedEOF {
			return len(peeked), fmt.Errorf("%w: compressed stream ended early", ErrTruncatedStream)
		}

		return len(peeked), fmt.Errorf("peek entry: %w", err)
	}

	return len(peeked), nil
}

// writeU32 writes v as 4 little-endian bytes.
func (w *primitiveWriter) writeU32(v uint32) error {
	var buf [sizeOfU32]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	n, err := w.bw.Write(buf[:])
	w.off += int64(n)
	return err
}

// writeString writes character count and one 2-byte code unit per character.
// Nothing is written when s holds an unrepresentable character.
func (w *primitiveWriter) writeString(s string) error {
	units, err := encodeCodeUnits(s)
	if err != nil {
		return err
	}

	if uint64(len(units)) > maxPrefixValue {
		return fmt.Errorf("%w: name has %d characters", ErrSizeOverflow, len(units))
	}

	if err := w.writeU32(uint32(len(units))); err != nil { //nolint:gosec // bounded above
		return fmt.Errorf("write name length: %w", err)
	}

	var buf [sizeOfCodeUnit]byte
	for _, unit := range units {
		binary.LittleEndian.PutUint16(buf[:], unit)
		n, err := w.bw.Write(buf[:])
		w.off += int64(n)
		if err != nil {
			return fmt.Errorf("write name: %w", err)
		}
	}

	return nil
}

// writeBytes writes byte count and raw bytes.
func (w *primitiveWriter) writeBytes(b []byte) error {
	if uint64(len(b)) > maxPrefixValue {
		return fmt.Errorf("%w: data has %d bytes", ErrSizeOverflow, len(b))
	}

	if err := w.writeU32(uint32(len(b))); err != nil { //nolint:gosec // bounded above
		return fmt.Errorf("write data length: %w", err)
	}

	n, err := w.bw.Write(b)
	w.off += int64(n)
	if err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	return nil
}

// decodeEntry reads one entry: name first, then data.
func decodeEntry(r *primitiveReader) (Entry, error) {
	name, err := r.readString()
	if err != nil {
		return Entry{}, err
	}

	data, err := r.readBytes()
	if err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", name, err)
	}

	return Entry{Name: name, Data: data}, nil
}

// encodeEntry writes one entry: name first, then data.
func encodeEntry(w *primitiveWriter, entry Entry) error {
	if err := w.writeString(entry.Name); err != nil {
		return fmt.Errorf("entry %q: %w", entry.Name, err)
	}

	if err := w.writeBytes(entry.Data); err != nil {
		return fmt.Errorf("entry %q: %w", entry.Name, err)
	}

	return nil
}

// CheckName reports whether name can be stored as an entry name.
func CheckName(name string) error {
	_, err := encodeCodeUnits(name)
	return err
}

// EncodedEntrySize returns decompressed record size of an entry with given name and data size.
func EncodedEntrySize(name string, dataSize int) (int64, error) {
	units, err := encodeCodeUnits(name)
	if err != nil {
		return 0, err
	}

	return int64(sizeOfU32) + int64(len(units))*sizeOfCodeUnit + sizeOfU32 + int64(dataSize), nil
}

// encodeCodeUnits converts s to one 16-bit code unit per character.
// Lone surrogate code units kept by decodeCodeUnits (3-byte form) map back verbatim.
func encodeCodeUnits(s string) ([]uint16, error) {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			unit, ok := surrogateUnitAt(s, i)
			if !ok {
				return nil, fmt.Errorf("%w: invalid UTF-8 at byte %d of %q", ErrUnrepresentableCharacter, i, s)
			}

			units = append(units, unit)
			i += 3
			continue
		}

		if r > maxCodeUnit {
			return nil, fmt.Errorf("%w: %U in %q", ErrUnrepresentableCharacter, r, s)
		}

		units = append(units, uint16(r)) //nolint:gosec // bounded by maxCodeUnit
		i += size
	}

	return units, nil
}

// decodeCodeUnits converts little-endian 2-byte code units to string, one character per unit.
// Surrogate code units have no valid UTF-8 form; they are kept as their raw 3-byte
// encoding so names round-trip byte-exact.
func decodeCodeUnits(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i+sizeOfCodeUnit <= len(raw); i += sizeOfCodeUnit {
		unit := binary.LittleEndian.Uint16(raw[i:])
		if isSurrogate(unit) {
			out = append(out,
				0xE0|byte(unit>>12),
				0x80|byte(unit>>6)&0x3F,
				0x80|byte(unit)&0x3F,
			)
			continue
		}

		out = utf8.AppendRune(out, rune(unit))
	}

	return string(out)
}

// surrogateUnitAt decodes raw 3-byte surrogate form at s[i:] produced by decodeCodeUnits.
func surrogateUnitAt(s string, i int) (uint16, bool) {
	if len(s)-i < 3 {
		return 0, false
	}

	b0, b1, b2 := s[i], s[i+1], s[i+2]
	if b0 != 0xED || b1 < 0xA0 || b1 > 0xBF || b2&0xC0 != 0x80 {
		return 0, false
	}

	return uint16(b0&0x0F)<<12 | uint16(b1&0x3F)<<6 | uint16(b2&0x3F), true
}

// isSurrogate reports whether unit is in UTF-16 surrogate range.
func isSurrogate(unit uint16) bool {
	return unit >= 0xD800 && unit <= 0xDFFF
}

// truncatedOr maps short reads to ErrTruncatedStream and keeps other I/O errors.
func truncatedOr(err error, want int64, got int64) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrTruncatedStream, want, got)
	}

	return err
}
