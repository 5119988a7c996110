// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSaveForTest(t *testing.T, path string, files map[string][]byte) {
	t.Helper()

	if err := os.WriteFile(path, encodeMapForTest(t, files), 0o600); err != nil {
		t.Fatalf("write save: %v", err)
	}
}

func decodeFileForTest(t *testing.T, path string) map[string][]byte {
	t.Helper()

	files, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile(%s): %v", path, err)
	}

	return files
}

func TestExportFile_ReplacesAndBacksUp(t *testing.T) {
	t.Parallel()

	savePath := filepath.Join(t.TempDir(), "Campaign.save")
	original := map[string][]byte{"gamesession.xml": []byte("v0")}
	writeSaveForTest(t, savePath, original)

	edited := map[string][]byte{
		"gamesession.xml": []byte("v1"),
		"Dugong.sub":      []byte("sub"),
	}
	srcDir := writeDirForTest(t, edited)

	res, err := ExportFile(context.Background(), savePath, srcDir, ExportOptions{BackupKeep: 1})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}

	if !res.Validation.Valid || res.Validation.Checked != len(edited) {
		t.Fatalf("validation=%+v, want valid with %d checked", res.Validation, len(edited))
	}
	if res.Pack.WrittenEntries != len(edited) {
		t.Fatalf("WrittenEntries=%d, want %d", res.Pack.WrittenEntries, len(edited))
	}
	if res.BackupPath != savePath+".bak" {
		t.Fatalf("BackupPath=%q, want %q", res.BackupPath, savePath+".bak")
	}

	assertFilesEqual(t, decodeFileForTest(t, savePath), edited)
	assertFilesEqual(t, decodeFileForTest(t, res.BackupPath), original)

	if _, err := os.Stat(savePath + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestExportFile_BackupKeepPolicies(t *testing.T) {
	t.Parallel()

	t.Run("keep0 makes no backup", func(t *testing.T) {
		t.Parallel()

		savePath := filepath.Join(t.TempDir(), "Campaign.save")
		writeSaveForTest(t, savePath, map[string][]byte{"a.txt": []byte("v0")})

		res, err := ExportFile(context.Background(), savePath, writeDirForTest(t, map[string][]byte{
			"a.txt": []byte("v1"),
		}), ExportOptions{})
		if err != nil {
			t.Fatalf("ExportFile: %v", err)
		}

		if res.BackupPath != "" {
			t.Fatalf("BackupPath=%q, want empty", res.BackupPath)
		}
		if _, err := os.Stat(savePath + ".bak"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf(".bak must not exist for BackupKeep=0, stat err=%v", err)
		}
	})

	t.Run("keep2 rotates backups", func(t *testing.T) {
		t.Parallel()

		tmp := t.TempDir()
		savePath := filepath.Join(tmp, "Campaign.save")
		backupPath := filepath.Join(tmp, "work", "backup.save")
		if err := os.MkdirAll(filepath.Dir(backupPath), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		writeSaveForTest(t, savePath, map[string][]byte{"a.txt": []byte("v0")})

		exportValue := func(value string) {
			t.Helper()

			srcDir := writeDirForTest(t, map[string][]byte{"a.txt": []byte(value)})
			if _, err := ExportFile(context.Background(), savePath, srcDir, ExportOptions{
				BackupPath: backupPath,
				BackupKeep: 2,
			}); err != nil {
				t.Fatalf("ExportFile(%s): %v", value, err)
			}
		}

		exportValue("v1")
		exportValue("v2")
		exportValue("v3")

		if got := decodeFileForTest(t, savePath)["a.txt"]; string(got) != "v3" {
			t.Fatalf("save payload=%q, want v3", got)
		}
		if got := decodeFileForTest(t, backupPath)["a.txt"]; string(got) != "v2" {
			t.Fatalf("current backup payload=%q, want v2", got)
		}
		if got := decodeFileForTest(t, backupPath+".1")["a.txt"]; string(got) != "v1" {
			t.Fatalf("previous backup payload=%q, want v1", got)
		}
		if _, err := os.Stat(backupPath + ".2"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("backup beyond keep limit exists, stat err=%v", err)
		}
	})
}

func TestExportFile_CreatesMissingSave(t *testing.T) {
	t.Parallel()

	savePath := filepath.Join(t.TempDir(), "New.save")
	files := map[string][]byte{"a.txt": []byte("hi"), "b.bin": {}}

	res, err := ExportFile(context.Background(), savePath, writeDirForTest(t, files), ExportOptions{BackupKeep: 3})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if res.BackupPath != "" {
		t.Fatalf("BackupPath=%q, want empty without original", res.BackupPath)
	}

	assertFilesEqual(t, decodeFileForTest(t, savePath), files)
}

func TestExportFile_FailureLeavesOriginal(t *testing.T) {
	t.Parallel()

	savePath := filepath.Join(t.TempDir(), "Campaign.save")
	original := map[string][]byte{"a.txt": []byte("v0")}
	writeSaveForTest(t, savePath, original)

	srcDir := writeDirForTest(t, map[string][]byte{
		"a.txt":              []byte("v1"),
		"save\U0001F600.xml": []byte("x"),
	})

	_, err := ExportFile(context.Background(), savePath, srcDir, ExportOptions{BackupKeep: 1})
	if !errors.Is(err, ErrUnrepresentableCharacter) {
		t.Fatalf("expected ErrUnrepresentableCharacter, got %v", err)
	}

	assertFilesEqual(t, decodeFileForTest(t, savePath), original)

	for _, leftover := range []string{savePath + ".tmp", savePath + ".bak"} {
		if _, err := os.Stat(leftover); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s exists after failed export, stat err=%v", leftover, err)
		}
	}
}

func TestExportFile_ExcludeRules(t *testing.T) {
	t.Parallel()

	savePath := filepath.Join(t.TempDir(), "Campaign.save")
	srcDir := writeDirForTest(t, map[string][]byte{
		"gamesession.xml": []byte("<Gamesession/>"),
		"gamesession.bak": []byte("old"),
	})

	_, err := ExportFile(context.Background(), savePath, srcDir, ExportOptions{
		DirOptions: DirOptions{Exclude: ExcludeRules("*.bak")},
	})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}

	assertFilesEqual(t, decodeFileForTest(t, savePath), map[string][]byte{
		"gamesession.xml": []byte("<Gamesession/>"),
	})
}

func TestCheckSavePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	savePath := filepath.Join(dir, "Campaign.SAVE")
	if err := os.WriteFile(savePath, nil, 0o600); err != nil {
		t.Fatalf("write save: %v", err)
	}
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, nil, 0o600); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	dirPath := filepath.Join(dir, "folder.save")
	if err := os.Mkdir(dirPath, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := CheckSavePath(savePath); err != nil {
		t.Fatalf("CheckSavePath(%s): %v", savePath, err)
	}
	if err := CheckSavePath(txtPath); !errors.Is(err, ErrNotSaveFile) {
		t.Fatalf("CheckSavePath(txt)=%v, want ErrNotSaveFile", err)
	}
	if err := CheckSavePath(dirPath); !errors.Is(err, ErrNotSaveFile) {
		t.Fatalf("CheckSavePath(dir)=%v, want ErrNotSaveFile", err)
	}
	if err := CheckSavePath(filepath.Join(dir, "missing.save")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("CheckSavePath(missing)=%v, want os.ErrNotExist", err)
	}
}
