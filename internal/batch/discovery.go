package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is one discovered input.
type File struct {
	// Path is the location on disk.
	Path string
	// Name is the path relative to the directory argument it was found in,
	// or the base name for files given directly. Reports use it as the file
	// column.
	Name string
}

// DiscoverOptions controls enumeration.
type DiscoverOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Discover expands args into files. Directories are walked in lexical order;
// explicit file arguments keep their order. Hidden and temporary names
// (leading "." or "~") are never returned.
func Discover(args []string, opts DiscoverOptions) ([]File, error) {
	var files []File

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, opts)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, opts.IncludePatterns, opts.ExcludePatterns) {
			files = append(files, File{Path: arg, Name: filepath.Base(arg)})
		}
	}

	return files, nil
}

// discoverInDirectory walks dir, descending only when recursive.
func discoverInDirectory(dir string, opts DiscoverOptions) ([]File, error) {
	var files []File

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !opts.Recursive || isHiddenName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if shouldIncludeFile(path, opts.IncludePatterns, opts.ExcludePatterns) {
			name, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				name = filepath.Base(path)
			}
			files = append(files, File{Path: path, Name: filepath.ToSlash(name)})
		}
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// isHiddenName reports dot files and "~" lock/temporary files.
func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~")
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if isHiddenName(filepath.Base(path)) {
		return false
	}

	// Check exclude patterns first
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	// If no include patterns, include all (that aren't excluded)
	if len(includePatterns) == 0 {
		return true
	}

	// Otherwise, must match at least one include pattern
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
