// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// maxSanitizedNameLen limits one output file name to common filesystem-safe length.
const maxSanitizedNameLen = 240

// reservedDeviceNames contains case-insensitive reserved Windows device names.
var reservedDeviceNames = map[string]struct{}{
	"aux": {}, "con": {}, "nul": {}, "prn": {}, "clock$": {}, "conin$": {}, "conout$": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// SanitizeName rewrites one entry name to a deterministic filesystem-safe file name.
func SanitizeName(name string) (string, error) {
	sanitized := sanitizeNameSegment(name)
	if _, err := normalizeExtractName(sanitized); err != nil {
		return "", fmt.Errorf("sanitize name %q: %w", name, err)
	}

	return sanitized, nil
}

// sanitizeEntryNames maps every entry to a unique filesystem-safe output name.
// Result is index-aligned with entries.
func sanitizeEntryNames(entries []Entry) ([]string, error) {
	out := make([]string, len(entries))
	used := make(map[string]struct{}, len(entries))
	nextSuffix := make(map[string]int, len(entries))

	for i := range entries {
		sanitized, err := SanitizeName(entries[i].Name)
		if err != nil {
			return nil, err
		}

		sanitized, err = makeSanitizedNameUnique(sanitized, used, nextSuffix)
		if err != nil {
			return nil, fmt.Errorf("sanitize name %q: %w", entries[i].Name, err)
		}

		out[i] = sanitized
	}

	return out, nil
}

// sanitizeNameSegment replaces separators, illegal and control characters and guards reserved names.
func sanitizeNameSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isUnsafeControlCharRune(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteByte('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		sanitized = "_"
	}

	if isReservedDeviceName(sanitized) {
		sanitized = "_" + sanitized
	}

	return shortenNameDeterministic(sanitized, maxSanitizedNameLen)
}

// isUnsafeControlCharRune reports whether rune is unsafe in a file name and should be replaced.
func isUnsafeControlCharRune(r rune) bool {
	if unicode.IsControl(r) || unicode.In(r, unicode.Cf) {
		return true
	}

	// U+FFFD also stands in for surrogate code units kept in raw form.
	return r == '\uFFFD'
}

// isReservedDeviceName reports whether name (before first dot) is a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	candidate = strings.TrimRight(candidate, " ")
	if candidate == "" {
		return false
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}

// makeSanitizedNameUnique resolves case-insensitive collisions by adding deterministic numeric suffix.
func makeSanitizedNameUnique(name string, used map[string]struct{}, nextSuffix map[string]int) (string, error) {
	key := strings.ToLower(name)
	if _, exists := used[key]; !exists {
		used[key] = struct{}{}
		return name, nil
	}

	startIdx := 2
	if savedIdx, exists := nextSuffix[key]; exists && savedIdx > startIdx {
		startIdx = savedIdx
	}

	for idx := startIdx; idx < 1000000; idx++ {
		candidate := withNumericSuffix(name, idx)
		candidateKey := strings.ToLower(candidate)
		if _, exists := used[candidateKey]; exists {
			continue
		}

		used[candidateKey] = struct{}{}
		nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}

// withNumericSuffix appends "~N" before extension and preserves max name length.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := "~" + strconv.Itoa(n)
	allowedBaseLen := max(maxSanitizedNameLen-len(ext)-len(suffix), 1)
	if len(base) > allowedBaseLen {
		base = shortenNameDeterministic(base, allowedBaseLen)
	}

	return base + suffix + ext
}

// shortenNameDeterministic shortens long name keeping a hash of the full value as suffix.
func shortenNameDeterministic(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())
	prefixLen := max(maxLen-len(hashPart), 1)

	return value[:prefixLen] + hashPart
}
