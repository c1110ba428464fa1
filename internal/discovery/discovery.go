package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Options configures a discovery run.
type Options struct {
	// Root is the directory to discover under (required)
	Root string

	// Include restricts candidates to files matching at least one
	// pattern (gitignore syntax). Empty means all files.
	Include []string

	// Types filters files by extension, without leading dot
	// (e.g. "ts", "tsx"). Empty means all files.
	Types []string

	// IgnoreFile is a path relative to Root containing ignore patterns
	// in gitignore syntax. A missing file is not an error.
	IgnoreFile string

	// Exclude are additional ignore patterns applied after the ignore file
	Exclude []string
}

// alwaysExcludedDirs are never descended into, regardless of ignore patterns.
var alwaysExcludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".next":        true,
	".turbo":       true,
	".cache":       true,
	"coverage":     true,
	"vendor":       true,
}

// alwaysExcludedFiles are generated artifacts never worth fixing.
var alwaysExcludedFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"bun.lockb":         true,
	"go.sum":            true,
}

// Discover enumerates candidate files under opts.Root.
// Returns deduplicated, lexicographically sorted paths relative to Root,
// using forward slashes.
func Discover(opts Options) ([]string, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("discovery root error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discovery root is not a directory: %s", opts.Root)
	}

	matcher, err := buildMatcher(opts)
	if err != nil {
		return nil, err
	}
	include := buildIncludeMatcher(opts.Include)

	typeSet := make(map[string]bool, len(opts.Types))
	for _, t := range opts.Types {
		typeSet[strings.TrimPrefix(t, ".")] = true
	}

	seen := make(map[string]bool)
	var files []string

	err = filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		segments := strings.Split(rel, "/")

		if d.IsDir() {
			if alwaysExcludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.Match(segments, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if alwaysExcludedFiles[d.Name()] {
			return nil
		}
		if matcher != nil && matcher.Match(segments, false) {
			return nil
		}
		// Include patterns gate files only: a directory that matches no
		// pattern may still contain files that do.
		if include != nil && !include.Match(segments, false) {
			return nil
		}
		if len(typeSet) > 0 {
			ext := strings.TrimPrefix(filepath.Ext(d.Name()), ".")
			if !typeSet[ext] {
				return nil
			}
		}

		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", opts.Root, err)
	}

	sort.Strings(files)
	return files, nil
}

// buildMatcher assembles the gitignore matcher from the ignore file and
// any extra exclude patterns. Returns nil when there is nothing to match.
func buildMatcher(opts Options) (gitignore.Matcher, error) {
	var patterns []gitignore.Pattern

	if opts.IgnoreFile != "" {
		ignorePath := filepath.Join(opts.Root, opts.IgnoreFile)
		data, err := os.ReadFile(ignorePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading ignore file %s: %w", ignorePath, err)
			}
		} else {
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				patterns = append(patterns, gitignore.ParsePattern(line, nil))
			}
		}
	}

	for _, pattern := range opts.Exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if len(patterns) == 0 {
		return nil, nil
	}
	return gitignore.NewMatcher(patterns), nil
}

// buildIncludeMatcher compiles the include patterns. Returns nil when no
// patterns are given, meaning everything is included.
func buildIncludeMatcher(include []string) gitignore.Matcher {
	var patterns []gitignore.Pattern
	for _, pattern := range include {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
