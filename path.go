// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"path"
	"strings"
)

// NormalizePath converts a file or rule path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.TrimPrefix(path, "./")
	return path
}

// normalizeExtractName validates an entry name for use as one plain file name.
// Names carrying separators, traversal, drive prefixes or NUL are rejected.
func normalizeExtractName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidExtractPath
	}
	if name == "." || name == ".." {
		return "", ErrInvalidExtractPath
	}
	if hasWindowsDrivePrefix(name) {
		return "", ErrInvalidExtractPath
	}

	return name, nil
}

// hasWindowsDrivePrefix reports whether name starts with drive prefix like C:.
func hasWindowsDrivePrefix(name string) bool {
	if len(name) < 2 {
		return false
	}

	return isASCIIAlpha(name[0]) && name[1] == ':'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
