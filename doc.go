// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

/*
Package barosave reads and writes Barotrauma .save containers: one gzip stream
holding a sequence of named files (the session XML plus auxiliary data files).
Entry content is opaque to this package; it only moves named byte blobs in and
out of the container.

Container layout (inside gzip, all integers little-endian):

	archive := entry*
	entry   := name_len:u32 (char:u16)*{name_len}  data_len:u32 byte{data_len}

There is no entry count, terminator or checksum. End of archive is the end of
the decompressed stream; 1..3 leftover bytes are reported as ErrTruncatedStream.
Names are stored as one 16-bit code unit per character, so characters above
U+FFFF fail with ErrUnrepresentableCharacter.

# Reading

Decode into a name to data map (later duplicates win):

	files, err := barosave.DecodeFile("Campaign.save")
	if err != nil {
	    return err
	}
	_ = files["gamesession.xml"]

List entries or keep stored order:

	infos, err := barosave.ListEntries("Campaign.save")
	if err != nil {
	    return err
	}
	_ = infos

# Extracting

Write every entry to a directory (names are checked to be plain file names):

	err := barosave.ExtractFile(ctx, "Campaign.save", "tmp/import", barosave.ExtractOptions{
	    FileMode: barosave.ExtractFileModeTruncate,
	})

# Packing

Encode inputs (sorted by name for deterministic output):

	inputs, err := barosave.DirInputs("tmp/import", barosave.DirOptions{
	    Exclude: barosave.ExcludeRules("*.bak", ".*"),
	})
	if err != nil {
	    return err
	}
	res, err := barosave.EncodeFile(ctx, "tmp/export.save", inputs, barosave.PackOptions{})
	_ = res.WrittenEntries

# Validated replace

Pack a directory, check the round trip, back up and swap the original in one call:

	res, err := barosave.ExportFile(ctx, "Campaign.save", "tmp/import", barosave.ExportOptions{
	    BackupKeep: 3,
	})
	if errors.Is(err, barosave.ErrValidationFailed) {
	    // res.Validation.Reason and res.Validation.Name tell what went wrong
	}
*/
package barosave
