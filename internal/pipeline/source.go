package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

const (
	exclusionPrefixConstant     = "!"
	currentDirectoryPrefix      = "./"
	currentDirectoryPathElement = "."
)

// SourceOptions tunes how Source selects and reads files.
type SourceOptions struct {
	// Base is the directory, relative to root, that record paths are made relative to. Defaults to root.
	Base string
	// SkipRead leaves Contents empty.
	SkipRead bool
	// IncludeDirectories keeps matched directories as records.
	IncludeDirectories bool
	// Dot lets wildcards match path segments starting with ".".
	Dot bool
	// Workers bounds concurrent reads. Defaults to the CPU count.
	Workers int
}

// MatchOptions tunes which paths Match returns.
type MatchOptions struct {
	IncludeDirectories bool
	// Dot lets wildcards match hidden segments such as .git or .env. Without it a hidden
	// segment is matched only when the pattern spells out a segment starting with ".".
	Dot bool
}

type patternSet struct {
	includes []string
	excludes []string
}

func splitPatterns(patterns []string) patternSet {
	set := patternSet{}
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		excluded := strings.HasPrefix(trimmed, exclusionPrefixConstant)
		if excluded {
			trimmed = strings.TrimPrefix(trimmed, exclusionPrefixConstant)
		}
		trimmed = normalizePattern(trimmed)
		if len(trimmed) == 0 {
			continue
		}
		if excluded {
			set.excludes = append(set.excludes, trimmed)
			continue
		}
		set.includes = append(set.includes, trimmed)
	}
	return set
}

func normalizePattern(pattern string) string {
	normalized := filepath.ToSlash(pattern)
	for strings.HasPrefix(normalized, currentDirectoryPrefix) {
		normalized = strings.TrimPrefix(normalized, currentDirectoryPrefix)
	}
	normalized = strings.TrimPrefix(normalized, "/")
	return strings.TrimSuffix(normalized, "/")
}

// excludes reports whether candidate, or any directory above it, matches an exclusion.
func (set patternSet) excludesPath(candidate string) (bool, error) {
	for _, exclusion := range set.excludes {
		for current := candidate; current != currentDirectoryPathElement && len(current) > 0; current = path.Dir(current) {
			matched, matchError := doublestar.Match(exclusion, current)
			if matchError != nil {
				return false, fmt.Errorf(sourcePatternErrorTemplateConstant, exclusion, matchError)
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

// hiddenSegmentsNamed reports whether every hidden segment of candidate is matched by a
// pattern segment that itself starts with ".".
func hiddenSegmentsNamed(pattern string, candidate string) bool {
	explicitSegments := make([]string, 0)
	for _, patternSegment := range strings.Split(pattern, "/") {
		if strings.HasPrefix(patternSegment, currentDirectoryPathElement) {
			explicitSegments = append(explicitSegments, patternSegment)
		}
	}
	for _, segment := range strings.Split(candidate, "/") {
		if !strings.HasPrefix(segment, currentDirectoryPathElement) {
			continue
		}
		named := false
		for _, explicitSegment := range explicitSegments {
			if matched, _ := doublestar.Match(explicitSegment, segment); matched {
				named = true
				break
			}
		}
		if !named {
			return false
		}
	}
	return true
}

// Match resolves patterns against root and returns matching slash paths relative to root, sorted.
// A leading "!" excludes matches; an excluded directory excludes everything beneath it.
func Match(root string, patterns []string, options MatchOptions) ([]string, error) {
	set := splitPatterns(patterns)
	fileSystem := os.DirFS(root)

	globOptions := []doublestar.GlobOption{}
	if !options.IncludeDirectories {
		globOptions = append(globOptions, doublestar.WithFilesOnly())
	}

	seen := make(map[string]struct{})
	matches := make([]string, 0)
	for _, include := range set.includes {
		if !doublestar.ValidatePattern(include) {
			return nil, fmt.Errorf(sourcePatternErrorTemplateConstant, include, doublestar.ErrBadPattern)
		}
		globMatches, globError := doublestar.Glob(fileSystem, include, globOptions...)
		if globError != nil {
			return nil, fmt.Errorf(sourcePatternErrorTemplateConstant, include, globError)
		}
		for _, match := range globMatches {
			if match == currentDirectoryPathElement {
				continue
			}
			if _, duplicate := seen[match]; duplicate {
				continue
			}
			if !options.Dot && !hiddenSegmentsNamed(include, match) {
				continue
			}
			excluded, exclusionError := set.excludesPath(match)
			if exclusionError != nil {
				return nil, exclusionError
			}
			if excluded {
				continue
			}
			seen[match] = struct{}{}
			matches = append(matches, match)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// Source selects files under root by glob and reads them concurrently.
func Source(executionContext context.Context, root string, patterns []string, options SourceOptions) ([]FileRecord, error) {
	matches, matchError := Match(root, patterns, MatchOptions{IncludeDirectories: options.IncludeDirectories, Dot: options.Dot})
	if matchError != nil {
		return nil, matchError
	}

	basePrefix := normalizePattern(options.Base)
	baseDirectory := root
	if len(basePrefix) > 0 {
		baseDirectory = filepath.Join(root, filepath.FromSlash(basePrefix))
	}

	workers := options.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	records := make([]FileRecord, len(matches))
	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(workers)
	for matchIndex, match := range matches {
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			record, readError := readRecord(root, match, baseDirectory, basePrefix, options.SkipRead)
			if readError != nil {
				return readError
			}
			records[matchIndex] = record
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	return records, nil
}

func readRecord(root string, match string, baseDirectory string, basePrefix string, skipRead bool) (FileRecord, error) {
	absolutePath := filepath.Join(root, filepath.FromSlash(match))
	info, statError := os.Stat(absolutePath)
	if statError != nil {
		return FileRecord{}, fmt.Errorf(sourceReadErrorTemplateConstant, match, statError)
	}

	relativePath := match
	recordBase := root
	if len(basePrefix) > 0 {
		trimmed, insideBase := strings.CutPrefix(match, basePrefix+"/")
		if insideBase {
			relativePath = trimmed
			recordBase = baseDirectory
		}
	}

	record := FileRecord{
		Path:    relativePath,
		Base:    recordBase,
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	if skipRead || info.IsDir() {
		return record, nil
	}

	contents, readError := os.ReadFile(absolutePath)
	if readError != nil {
		return FileRecord{}, fmt.Errorf(sourceReadErrorTemplateConstant, match, readError)
	}
	record.Contents = contents
	return record, nil
}
