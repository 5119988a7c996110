// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeebo/blake3"
)

// ValidationReason names why a candidate container failed round-trip validation.
type ValidationReason string

// Validation outcomes.
const (
	// ValidationOK means every reference file was found byte-identical.
	ValidationOK ValidationReason = ""
	// ValidationMissingFile means a reference file has no entry in the candidate.
	ValidationMissingFile ValidationReason = "missing_file"
	// ValidationContentMismatch means an entry differs from its reference file.
	ValidationContentMismatch ValidationReason = "content_mismatch"
)

// Digest is a BLAKE3-256 content digest used in validation diagnostics.
type Digest [32]byte

// String returns lowercase hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ValidationResult reports the outcome of comparing a candidate container with its sources.
type ValidationResult struct {
	// Reason is empty for a valid candidate.
	Reason ValidationReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Name is the first reference entry that failed.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Expected is digest of the reference file for content mismatches.
	Expected Digest `json:"expected,omitzero" yaml:"expected,omitempty"`
	// Actual is digest of the candidate entry for content mismatches.
	Actual Digest `json:"actual,omitzero" yaml:"actual,omitempty"`
	// Checked is number of reference files compared before stopping.
	Checked int `json:"checked" yaml:"checked"`
	// Valid reports whether every reference file survived the round trip.
	Valid bool `json:"valid" yaml:"valid"`
}

// Err returns nil for a valid result and an ErrValidationFailed-wrapped description otherwise.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}

	if r.Reason == ValidationContentMismatch {
		return fmt.Errorf("%w: %s %q (expected %s, got %s)", ErrValidationFailed, r.Reason, r.Name, r.Expected, r.Actual)
	}

	return fmt.Errorf("%w: %s %q", ErrValidationFailed, r.Reason, r.Name)
}

// Validate decodes candidate and checks every reference input is present with identical bytes.
// Entries in candidate without a reference are ignored. Mismatches are reported in the result;
// only I/O and decode failures are returned as errors.
func Validate(reference []Input, candidate io.Reader) (*ValidationResult, error) {
	decoded, err := Decode(candidate)
	if err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}

	sorted := make([]Input, len(reference))
	copy(sorted, reference)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	copyBuf, releaseCopyBuffer := acquirePackCopyBuffer()
	defer releaseCopyBuffer()

	res := &ValidationResult{}
	for _, in := range sorted {
		got, ok := decoded[in.Name]
		if !ok {
			res.Reason = ValidationMissingFile
			res.Name = in.Name
			return res, nil
		}

		want, err := readInputPayload(in, copyBuf)
		if err != nil {
			return nil, fmt.Errorf("read reference: %w", err)
		}

		res.Checked++
		if !bytes.Equal(want, got) {
			res.Reason = ValidationContentMismatch
			res.Name = in.Name
			res.Expected = blake3.Sum256(want)
			res.Actual = blake3.Sum256(got)
			return res, nil
		}
	}

	res.Valid = true
	return res, nil
}

// ValidateFile validates the container at candidatePath against reference inputs.
func ValidateFile(reference []Input, candidatePath string) (*ValidationResult, error) {
	f, err := os.Open(candidatePath)
	if err != nil {
		return nil, fmt.Errorf("open candidate: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Validate(reference, f)
}

// ValidateDir validates the container at candidatePath against files of dir.
func ValidateDir(dir string, candidatePath string, opts DirOptions) (*ValidationResult, error) {
	reference, err := DirInputs(dir, opts)
	if err != nil {
		return nil, err
	}

	return ValidateFile(reference, candidatePath)
}
