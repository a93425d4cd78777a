package typegen

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/teranos/pbts/errors"
)

// generatedMarker identifies files this generator owns.
const generatedMarker = "// Code generated by pbts. DO NOT EDIT."

// FileDiff describes one output file that does not match a fresh generation.
type FileDiff struct {
	Path string `json:"path"`

	// Missing is set when the file should exist but does not
	Missing bool `json:"missing,omitempty"`

	// Stale is set when a generated file exists that the run no longer produces
	Stale bool `json:"stale,omitempty"`

	// Diff is a unified diff from the file on disk to the fresh content
	Diff string `json:"diff"`
}

// CheckResult holds the result of comparing a run with an output directory.
type CheckResult struct {
	UpToDate    bool       `json:"up_to_date"`
	Differences []FileDiff `json:"differences"` // sorted by path
}

// Err returns ErrOutOfDate when any file differs.
func (c *CheckResult) Err() error {
	if c.UpToDate {
		return nil
	}
	return errors.WithHint(
		errors.Wrapf(errors.ErrOutOfDate, "%d files differ", len(c.Differences)),
		"run pbts generate to update the output directory")
}

// Check compares the files of res with the contents of outputRoot.
func Check(res *Result, outputRoot string) (*CheckResult, error) {
	var diffs []FileDiff
	produced := make(map[string]bool, len(res.Files))

	for _, f := range res.Files {
		produced[f.Path] = true
		path := filepath.Join(outputRoot, filepath.FromSlash(f.Path))

		existing, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			diffs = append(diffs, FileDiff{
				Path:    f.Path,
				Missing: true,
				Diff:    unifiedDiff(f.Path, "", string(f.Content)),
			})
		case err != nil:
			return nil, errors.Wrapf(err, "failed to read %s", path)
		case !bytes.Equal(existing, f.Content):
			diffs = append(diffs, FileDiff{
				Path: f.Path,
				Diff: unifiedDiff(f.Path, string(existing), string(f.Content)),
			})
		}
	}

	stale, err := staleFiles(outputRoot, produced)
	if err != nil {
		return nil, err
	}
	diffs = append(diffs, stale...)

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return &CheckResult{UpToDate: len(diffs) == 0, Differences: diffs}, nil
}

// staleFiles finds generated TypeScript files under root that are not in produced.
func staleFiles(root string, produced map[string]bool) ([]FileDiff, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var stale []FileDiff
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".ts" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if produced[rel] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if isGenerated(content) {
			stale = append(stale, FileDiff{
				Path:  rel,
				Stale: true,
				Diff:  unifiedDiff(rel, string(content), ""),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}
	return stale, nil
}

// isGenerated reports whether the marker appears in the first lines of content.
func isGenerated(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for i := 0; i < 3 && scanner.Scan(); i++ {
		if strings.TrimSpace(scanner.Text()) == generatedMarker {
			return true
		}
	}
	return false
}

func unifiedDiff(path, from, to string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	return diff
}
