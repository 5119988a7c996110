// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

package barosave

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/woozymasta/pathrules"
)

// excludeMatcher holds compiled rules that drop files from a directory scan.
type excludeMatcher struct {
	matcher *pathrules.Matcher
}

// newExcludeMatcher compiles exclude path rules; nil means nothing is excluded.
func newExcludeMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*excludeMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("compile exclude rules: %w", err)
	}

	return &excludeMatcher{matcher: matcher}, nil
}

// normalizeRules normalizes rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Excluded reports whether name is dropped by the rules.
func (m *excludeMatcher) Excluded(name string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(name)
	if candidate == "" {
		return false
	}

	return !m.matcher.Included(candidate, false)
}

// ExcludeRules turns plain patterns into exclude rules.
func ExcludeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: pattern})
	}

	return rules
}

// DirInputs lists regular files directly inside dir as encode inputs.
// Entry name is the file base name; subdirectories are skipped and the result is sorted by name.
func DirInputs(dir string, opts DirOptions) ([]Input, error) {
	opts.applyDefaults()

	matcher, err := newExcludeMatcher(opts.Exclude, opts.ExcludeMatcherOptions)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	inputs := make([]Input, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if !dirEntry.Type().IsRegular() {
			continue
		}

		name := dirEntry.Name()
		if matcher.Excluded(name) {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}

		filePath := filepath.Join(dir, name)
		inputs = append(inputs, Input{
			Name:     name,
			SizeHint: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(filePath)
			},
		})
	}

	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Name < inputs[j].Name
	})

	return inputs, nil
}
