// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

// barosave unpacks a Barotrauma .save container into a working directory
// (import) and packs the edited working files back into the same .save
// (export). Export validates the new container against the working files
// before it backs up and replaces the original.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/woozymasta/barosave"
	"github.com/woozymasta/barosave/internal/config"
)

// Working directory layout below config work_dir.
const (
	importDirName  = "import"
	backupFileName = "backup.save"
)

// usageError marks command-line misuse; it exits with code 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// ExitCode returns process exit code for usage errors.
func (e *usageError) ExitCode() int { return 2 }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// options holds parsed command line.
type options struct {
	configPath    string
	workDir       string
	logLevel      string
	exclude       []string
	backupKeep    int
	level         int
	sanitizeNames bool
	list          bool
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("barosave", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.workDir, "work-dir", "", "working directory holding import/ and backup.save")
	flagSet.IntVar(&opts.backupKeep, "backup-keep", config.DefaultBackupKeep, "backup generations kept on export (0 disables)")
	flagSet.IntVar(&opts.level, "level", 0, "gzip compression level for export (-2..9, 0 means default)")
	flagSet.StringArrayVar(&opts.exclude, "exclude", nil, "gitignore-like pattern of working files to leave out on export (repeatable)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&opts.sanitizeNames, "sanitize-names", false, "rewrite unsafe entry names on import instead of failing")
	flagSet.BoolVar(&opts.list, "list", false, "with import: only list entries")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &usageError{msg: err.Error()}
	}

	positional := flagSet.Args()
	if len(positional) != 2 {
		printHelp(stderr, flagSet)
		return &usageError{msg: "expected operation and save file"}
	}

	operation, savePath := positional[0], positional[1]
	if operation != "import" && operation != "export" {
		return &usageError{msg: fmt.Sprintf("unknown operation %q (want import or export)", operation)}
	}

	cfg, err := resolveConfig(flagSet, opts)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := barosave.CheckSavePath(savePath); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	switch operation {
	case "import":
		if opts.list {
			return listSave(savePath, stdout)
		}
		return importSave(ctx, logger, cfg, savePath)
	default:
		return exportSave(ctx, logger, cfg, savePath)
	}
}

// resolveConfig loads config file and applies explicitly set flags over it.
func resolveConfig(flagSet *pflag.FlagSet, opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("work-dir") {
		cfg.WorkDir = opts.workDir
	}
	if flagSet.Changed("backup-keep") {
		keep := opts.backupKeep
		cfg.BackupKeep = &keep
	}
	if flagSet.Changed("level") {
		cfg.CompressionLevel = opts.level
	}
	if flagSet.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flagSet.Changed("sanitize-names") {
		cfg.SanitizeNames = opts.sanitizeNames
	}

	if err := cfg.Validate(); err != nil {
		return nil, &usageError{msg: err.Error()}
	}

	return cfg, nil
}

// importSave extracts every entry of savePath into the import working directory.
func importSave(ctx context.Context, logger *slog.Logger, cfg *config.Config, savePath string) error {
	importDir := filepath.Join(cfg.WorkDir, importDirName)

	count := 0
	err := barosave.ExtractFile(ctx, savePath, importDir, barosave.ExtractOptions{
		FileMode:      barosave.ExtractFileModeTruncate,
		SanitizeNames: cfg.SanitizeNames,
		OnEntryDone: func(name string, size int, outputPath string) {
			count++
			logger.Debug("extracted entry", "name", name, "bytes", size, "path", outputPath)
		},
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", savePath, err)
	}

	logger.Info("imported save", "save", savePath, "entries", count, "dir", importDir)
	return nil
}

// exportSave packs the import working directory back into savePath.
func exportSave(ctx context.Context, logger *slog.Logger, cfg *config.Config, savePath string) error {
	importDir := filepath.Join(cfg.WorkDir, importDirName)

	res, err := barosave.ExportFile(ctx, savePath, importDir, barosave.ExportOptions{
		PackOptions: barosave.PackOptions{
			CompressionLevel: cfg.CompressionLevel,
			OnEntryDone: func(entry barosave.PackEntryProgress) {
				logger.Debug("packed entry", "name", entry.Name, "bytes", entry.DataSize)
			},
		},
		DirOptions: barosave.DirOptions{
			Exclude: barosave.ExcludeRules(cfg.Exclude...),
		},
		BackupPath: filepath.Join(cfg.WorkDir, backupFileName),
		BackupKeep: cfg.Backups(),
	})
	if err != nil {
		if res != nil && res.Validation != nil && !res.Validation.Valid {
			logger.Error("new container failed validation, original left untouched",
				"reason", string(res.Validation.Reason),
				"entry", res.Validation.Name,
			)
		}
		return fmt.Errorf("export %s: %w", savePath, err)
	}

	logger.Info("exported save",
		"save", savePath,
		"entries", res.Pack.WrittenEntries,
		"bytes", res.Pack.CompressedSize,
		"backup", res.BackupPath,
	)
	return nil
}

// listSave prints entry names and sizes of savePath.
func listSave(savePath string, stdout io.Writer) error {
	infos, err := barosave.ListEntries(savePath)
	if err != nil {
		return fmt.Errorf("list %s: %w", savePath, err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\n", info.Name, info.Size)
	}

	return tw.Flush()
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `barosave - unpack and repack Barotrauma .save files.

Usage:
  barosave [flags] import <file.save>   extract entries into <work-dir>/import
  barosave [flags] export <file.save>   pack <work-dir>/import back into <file.save>

Flags:
%s`, flagSet.FlagUsages())
}
