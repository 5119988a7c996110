// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExportResult contains outcome of one validated replace.
type ExportResult struct {
	// Pack holds encode statistics of the new container.
	Pack *PackResult `json:"pack,omitempty" yaml:"pack,omitempty"`
	// Validation is round-trip check of the new container against source files.
	Validation *ValidationResult `json:"validation,omitempty" yaml:"validation,omitempty"`
	// BackupPath is where the previous container was copied; empty when no backup was made.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
}

// ExportFile packs files of srcDir into a new container and swaps it in place of savePath.
// The container is first written to a sibling temp file and validated against srcDir;
// savePath is only replaced after validation succeeds and the backup is in place.
func ExportFile(ctx context.Context, savePath string, srcDir string, opts ExportOptions) (*ExportResult, error) {
	savePath = strings.TrimSpace(savePath)
	if savePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotSaveFile)
	}

	opts.applyDefaults()

	inputs, err := DirInputs(srcDir, opts.DirOptions)
	if err != nil {
		return nil, err
	}

	tmpPath := savePath + ".tmp"
	packRes, err := EncodeFile(ctx, tmpPath, inputs, opts.PackOptions)
	if err != nil {
		return nil, fmt.Errorf("write new container: %w", err)
	}

	res := &ExportResult{Pack: packRes}
	res.Validation, err = ValidateFile(inputs, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("validate new container: %w", err)
	}

	if err := res.Validation.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return res, err
	}

	if opts.BackupKeep > 0 {
		backupPath := opts.BackupPath
		if backupPath == "" {
			backupPath = savePath + ".bak"
		}

		made, err := backupOriginal(savePath, backupPath, opts.BackupKeep)
		if err != nil {
			_ = os.Remove(tmpPath)
			return nil, err
		}
		if made {
			res.BackupPath = backupPath
		}
	}

	if err := os.Rename(tmpPath, savePath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("replace save: %w", err)
	}

	return res, nil
}

// backupOriginal rotates backup generations and copies savePath to backupPath.
// It reports false when there is no original to back up.
func backupOriginal(savePath string, backupPath string, keep int) (bool, error) {
	if _, err := os.Stat(savePath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat save: %w", err)
	}

	if err := prepareBackupSlot(backupPath, keep); err != nil {
		return false, err
	}

	if err := copyFile(savePath, backupPath); err != nil {
		return false, fmt.Errorf("back up save: %w", err)
	}

	return true, nil
}

// prepareBackupSlot rotates/removes existing backup generations before new backup.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep <= 1 {
		return removeIfExists(backupPath)
	}

	oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
	if err := removeIfExists(oldest); err != nil {
		return err
	}

	for i := keep - 2; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", backupPath, i)
		to := fmt.Sprintf("%s.%d", backupPath, i+1)
		if err := renameIfExists(from, to); err != nil {
			return err
		}
	}

	return renameIfExists(backupPath, backupPath+".1")
}

// copyFile copies src to dst, replacing dst.
func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

// CheckSavePath reports whether path is an existing regular file with the .save extension.
func CheckSavePath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), DefaultSaveExt) {
		return fmt.Errorf("%w: %q has no %s extension", ErrNotSaveFile, path, DefaultSaveExt)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat save: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %q is not a regular file", ErrNotSaveFile, path)
	}

	return nil
}
