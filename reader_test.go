// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDecode_LiteralExample(t *testing.T) {
	t.Parallel()

	want := map[string][]byte{
		"a.txt": []byte("hi"),
		"b.bin": {},
	}

	container := encodeMapForTest(t, want)

	wantRaw := append(rawEntryForTest("a.txt", []byte("hi")), rawEntryForTest("b.bin", nil)...)
	if raw := gunzipForTest(t, container); !bytes.Equal(raw, wantRaw) {
		t.Fatalf("raw=% x, want % x", raw, wantRaw)
	}

	got, err := Decode(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	assertFilesEqual(t, got, want)

	if got["b.bin"] == nil {
		t.Fatal("empty entry decoded as nil, want empty slice")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	big := bytes.Repeat([]byte("<Submarine name=\"Dugong\"/>\n"), 20000)
	want := map[string][]byte{
		"gamesession.xml":  []byte("<Gamesession/>"),
		"Dugong.sub":       big,
		"сохранение.bin":   {0x00, 0x01, 0xfe, 0xff},
		"empty":            {},
		"spaces in name.x": []byte("x"),
	}

	got, err := Decode(bytes.NewReader(encodeMapForTest(t, want)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	assertFilesEqual(t, got, want)
}

func TestDecode_EmptyArchive(t *testing.T) {
	t.Parallel()

	container := encodeMapForTest(t, nil)
	if raw := gunzipForTest(t, container); len(raw) != 0 {
		t.Fatalf("len(raw)=%d, want 0", len(raw))
	}

	got, err := Decode(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(files)=%d, want 0", len(got))
	}
}

func TestDecode_TrailingBytes(t *testing.T) {
	t.Parallel()

	for trailing := 1; trailing <= 3; trailing++ {
		raw := append(rawEntryForTest("a.txt", []byte("hi")), bytes.Repeat([]byte{0x01}, trailing)...)
		_, err := Decode(bytes.NewReader(gzipForTest(t, raw)))
		if !errors.Is(err, ErrTruncatedStream) {
			t.Fatalf("trailing=%d: expected ErrTruncatedStream, got %v", trailing, err)
		}
	}
}

func TestDecode_TruncatedEntry(t *testing.T) {
	t.Parallel()

	full := rawEntryForTest("gamesession.xml", []byte("<Gamesession/>"))

	// every proper prefix of at least one length prefix must fail
	for cut := sizeOfU32; cut < len(full); cut++ {
		_, err := Decode(bytes.NewReader(gzipForTest(t, full[:cut])))
		if !errors.Is(err, ErrTruncatedStream) {
			t.Fatalf("cut=%d: expected ErrTruncatedStream, got %v", cut, err)
		}
	}
}

func TestDecode_TruncatedCompressedStream(t *testing.T) {
	t.Parallel()

	container := encodeMapForTest(t, map[string][]byte{
		"a.txt": bytes.Repeat([]byte("abcdefgh"), 4096),
	})

	_, err := Decode(bytes.NewReader(container[:len(container)/2]))
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Decode(bytes.NewReader(nil))
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestDecode_NotGzip(t *testing.T) {
	t.Parallel()

	_, err := Decode(bytes.NewReader([]byte("not a gzip stream at all")))
	if err == nil {
		t.Fatal("expected error for non-gzip input")
	}
}

func TestDecode_NilReader(t *testing.T) {
	t.Parallel()

	_, err := Decode(nil)
	if !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}
}

func TestDecode_DuplicateLastWins(t *testing.T) {
	t.Parallel()

	var raw []byte
	raw = append(raw, rawEntryForTest("a.txt", []byte("first"))...)
	raw = append(raw, rawEntryForTest("b.txt", []byte("other"))...)
	raw = append(raw, rawEntryForTest("a.txt", []byte("second"))...)
	container := gzipForTest(t, raw)

	got, err := Decode(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got["a.txt"]) != "second" {
		t.Fatalf("a.txt=%q, want second", got["a.txt"])
	}

	entries, err := DecodeEntries(bytes.NewReader(container), ReaderOptions{})
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries)=%d, want 3", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[1].Name != "b.txt" || entries[2].Name != "a.txt" {
		t.Fatalf("stored order=[%q %q %q], want [a.txt b.txt a.txt]", entries[0].Name, entries[1].Name, entries[2].Name)
	}
}

func TestDecode_SurrogateNameRoundTrip(t *testing.T) {
	t.Parallel()

	var raw []byte
	raw = append(raw, 2, 0, 0, 0, 0x3d, 0xd8, 'x', 0) // lone high surrogate then "x"
	raw = append(raw, 1, 0, 0, 0, 'z')

	entries, err := DecodeEntries(bytes.NewReader(gzipForTest(t, raw)), ReaderOptions{})
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries)=%d, want 1", len(entries))
	}

	reencoded := encodeMapForTest(t, map[string][]byte{entries[0].Name: entries[0].Data})
	if got := gunzipForTest(t, reencoded); !bytes.Equal(got, raw) {
		t.Fatalf("re-encoded=% x, want % x", got, raw)
	}
}

func TestDecodeEntries_MaxEntrySize(t *testing.T) {
	t.Parallel()

	container := encodeMapForTest(t, map[string][]byte{"a.txt": []byte("hello")})

	_, err := DecodeEntries(bytes.NewReader(container), ReaderOptions{MaxEntrySize: 4})
	if !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}

	entries, err := DecodeEntries(bytes.NewReader(container), ReaderOptions{MaxEntrySize: 5})
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries)=%d, want 1", len(entries))
	}
}

func TestDecode_HugeLengthPrefixDoesNotPreallocate(t *testing.T) {
	t.Parallel()

	raw := rawEntryForTest("a.txt", nil)
	// overwrite data length with 0xFFFFFFF0 and supply only a few bytes
	copy(raw[len(raw)-sizeOfU32:], []byte{0xf0, 0xff, 0xff, 0xff})
	raw = append(raw, 'a', 'b', 'c')

	_, err := Decode(bytes.NewReader(gzipForTest(t, raw)))
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	want := map[string][]byte{"gamesession.xml": []byte("<Gamesession/>")}
	path := filepath.Join(t.TempDir(), "Campaign.save")
	if err := os.WriteFile(path, encodeMapForTest(t, want), 0o600); err != nil {
		t.Fatalf("write save: %v", err)
	}

	got, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	assertFilesEqual(t, got, want)

	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.save")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestListEntries_MatchesDecode(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt": []byte("hi"),
		"b.bin": {},
		"c.xml": []byte("<c/>"),
	}
	path := filepath.Join(t.TempDir(), "Campaign.save")
	if err := os.WriteFile(path, encodeMapForTest(t, files), 0o600); err != nil {
		t.Fatalf("write save: %v", err)
	}

	infos, err := ListEntries(path)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(infos) != len(files) {
		t.Fatalf("len(infos)=%d, want %d", len(infos), len(files))
	}

	var offset int64
	for _, info := range infos {
		if int(info.Size) != len(files[info.Name]) {
			t.Fatalf("%s size=%d, want %d", info.Name, info.Size, len(files[info.Name]))
		}
		if info.Offset != offset {
			t.Fatalf("%s offset=%d, want %d", info.Name, info.Offset, offset)
		}

		size, err := EncodedEntrySize(info.Name, int(info.Size))
		if err != nil {
			t.Fatalf("EncodedEntrySize: %v", err)
		}
		offset += size
	}

	if infos[0].Name != "a.txt" || infos[1].Name != "b.bin" || infos[2].Name != "c.xml" {
		t.Fatalf("order=[%q %q %q], want sorted", infos[0].Name, infos[1].Name, infos[2].Name)
	}
}
