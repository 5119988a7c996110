// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/klauspost/compress/gzip"
)

// rawEntryForTest builds one uncompressed entry record by hand.
func rawEntryForTest(name string, data []byte) []byte {
	units := utf16.Encode([]rune(name))

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(units)))
	for _, unit := range units {
		_ = binary.Write(&buf, binary.LittleEndian, unit)
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

// gzipForTest compresses raw decompressed archive bytes.
func gzipForTest(t *testing.T, raw []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

// gunzipForTest decompresses a container to its raw archive bytes.
func gunzipForTest(t *testing.T, container []byte) []byte {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer func() { _ = zr.Close() }()

	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gzip read: %v", err)
	}

	return raw
}

// encodeMapForTest encodes files into an in-memory container.
func encodeMapForTest(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	if _, err := EncodeMap(context.Background(), &buf, files, PackOptions{}); err != nil {
		t.Fatalf("EncodeMap: %v", err)
	}

	return buf.Bytes()
}

// writeDirForTest writes files into a fresh temp directory.
func writeDirForTest(t *testing.T, files map[string][]byte) string {
	t.Helper()

	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	return dir
}

// assertFilesEqual compares two name to data maps.
func assertFilesEqual(t *testing.T, got map[string][]byte, want map[string][]byte) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len(files)=%d, want %d", len(got), len(want))
	}

	for name, wantData := range want {
		gotData, ok := got[name]
		if !ok {
			t.Fatalf("missing entry %q", name)
		}
		if !bytes.Equal(gotData, wantData) {
			t.Fatalf("entry %q=%q, want %q", name, gotData, wantData)
		}
	}
}
