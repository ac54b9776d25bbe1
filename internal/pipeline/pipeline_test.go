package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/internal/pipeline"
)

func writeFixture(testInstance *testing.T, root string, files map[string]string) {
	testInstance.Helper()
	for relativePath, contents := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(testInstance, os.WriteFile(absolutePath, []byte(contents), 0o644))
	}
}

func recordPaths(records []pipeline.FileRecord) []string {
	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.Path)
	}
	return paths
}

func TestSourceSelectsFilesByPattern(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"plugin.php":                  "<?php",
		"includes/class-sites.php":    "<?php class Sites {}",
		"node_modules/lib/index.js":   "module.exports = {}",
		"dist/woostify-sites/old.php": "<?php",
		"assets/scss/admin.scss":      "body {}",
		"assets/css/admin.css":        "body{}",
		"composer.json":               "{}",
		"merlin-config-sample.php":    "<?php",
	})

	testCases := []struct {
		name          string
		patterns      []string
		expectedPaths []string
	}{
		{
			name:          "recursive php",
			patterns:      []string{"./**/*.php", "!merlin-config-sample.php", "!dist/"},
			expectedPaths: []string{"includes/class-sites.php", "plugin.php"},
		},
		{
			name:          "excluded directory drops subtree",
			patterns:      []string{"**", "!node_modules/**", "!dist/", "!assets/scss/**", "!composer.json"},
			expectedPaths: []string{"assets/css/admin.css", "includes/class-sites.php", "merlin-config-sample.php", "plugin.php"},
		},
		{
			name:          "duplicates collapse",
			patterns:      []string{"*.php", "plugin.php"},
			expectedPaths: []string{"merlin-config-sample.php", "plugin.php"},
		},
		{
			name:          "no matches",
			patterns:      []string{"**/*.twig"},
			expectedPaths: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			records, sourceError := pipeline.Source(context.Background(), root, testCase.patterns, pipeline.SourceOptions{Workers: 2})
			require.NoError(subtest, sourceError)
			require.Equal(subtest, testCase.expectedPaths, recordPaths(records))
		})
	}
}

func TestMatchSkipsHiddenSegmentsUnlessNamed(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"woostify-sites.php":          "<?php",
		".env":                        "SECRET=1",
		".git/config":                 "[core]",
		".github/workflows/ci.yml":    "on: push",
		"assets/js/.eslintrc":         "{}",
		"assets/js/admin.js":          "run()",
		"languages/.htaccess":         "deny",
		"languages/woostify-sites.po": "msgid \"\"",
	})

	testCases := []struct {
		name          string
		patterns      []string
		options       pipeline.MatchOptions
		expectedPaths []string
	}{
		{
			name:          "wildcards skip hidden paths",
			patterns:      []string{"**", "!dist/"},
			expectedPaths: []string{"assets/js/admin.js", "languages/woostify-sites.po", "woostify-sites.php"},
		},
		{
			name:          "explicit hidden segment is kept",
			patterns:      []string{"languages/.htaccess", ".env"},
			expectedPaths: []string{".env", "languages/.htaccess"},
		},
		{
			name:          "hidden directory named by pattern",
			patterns:      []string{".git/*"},
			expectedPaths: []string{".git/config"},
		},
		{
			name:          "hidden directory wildcard below named segment",
			patterns:      []string{".github/**"},
			expectedPaths: []string{".github/workflows/ci.yml"},
		},
		{
			name:     "dot option matches everything",
			patterns: []string{"**", "!.git/"},
			options:  pipeline.MatchOptions{Dot: true},
			expectedPaths: []string{
				".env",
				".github/workflows/ci.yml",
				"assets/js/.eslintrc",
				"assets/js/admin.js",
				"languages/.htaccess",
				"languages/woostify-sites.po",
				"woostify-sites.php",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			matches, matchError := pipeline.Match(root, testCase.patterns, testCase.options)
			require.NoError(subtest, matchError)
			require.Equal(subtest, testCase.expectedPaths, matches)
		})
	}
}

func TestSourceReadsContentsRelativeToBase(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"dist/woostify-sites/readme.txt":       "Stable tag: @@pkg.version",
		"dist/woostify-sites/assets/admin.css": "body{}",
	})

	records, sourceError := pipeline.Source(context.Background(), root, []string{"dist/woostify-sites/**"}, pipeline.SourceOptions{Base: "dist"})
	require.NoError(testInstance, sourceError)
	require.Equal(testInstance, []string{"woostify-sites/assets/admin.css", "woostify-sites/readme.txt"}, recordPaths(records))
	require.Equal(testInstance, "Stable tag: @@pkg.version", string(records[1].Contents))
	require.Equal(testInstance, filepath.Join(root, "dist"), records[1].Base)
	require.Equal(testInstance, filepath.Join(root, "dist", "woostify-sites", "readme.txt"), records[1].AbsolutePath())
}

func TestSourceSkipReadIncludesDirectories(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"dist/woostify-sites/plugin.php": "<?php",
		"dist/woostify-sites.zip":        "PK",
	})

	records, sourceError := pipeline.Source(context.Background(), root, []string{"dist/*"}, pipeline.SourceOptions{SkipRead: true, IncludeDirectories: true})
	require.NoError(testInstance, sourceError)
	require.Equal(testInstance, []string{"dist/woostify-sites", "dist/woostify-sites.zip"}, recordPaths(records))
	require.True(testInstance, records[0].IsDirectory())
	require.Nil(testInstance, records[1].Contents)
}

func TestSourceRejectsBadPattern(testInstance *testing.T) {
	_, sourceError := pipeline.Source(context.Background(), testInstance.TempDir(), []string{"assets/[css"}, pipeline.SourceOptions{})
	require.Error(testInstance, sourceError)
	require.Contains(testInstance, sourceError.Error(), "invalid pattern")
}

func TestDestinationWritesRecords(testInstance *testing.T) {
	root := testInstance.TempDir()
	records := []pipeline.FileRecord{
		{Path: "css/admin.min.css", Contents: []byte("body{}")},
		{Path: "languages", Mode: os.ModeDir | 0o755},
	}

	written, destinationError := pipeline.Destination(root, "assets", records)
	require.NoError(testInstance, destinationError)
	require.Len(testInstance, written, 2)

	contents, readError := os.ReadFile(filepath.Join(root, "assets", "css", "admin.min.css"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "body{}", string(contents))

	info, statError := os.Stat(filepath.Join(root, "assets", "languages"))
	require.NoError(testInstance, statError)
	require.True(testInstance, info.IsDir())
}

func TestRenameRewritesFileNames(testInstance *testing.T) {
	testCases := []struct {
		name         string
		rename       pipeline.Rename
		inputPath    string
		expectedPath string
	}{
		{name: "suffix", rename: pipeline.Rename{Suffix: ".min"}, inputPath: "css/admin.css", expectedPath: "css/admin.min.css"},
		{name: "basename and suffix", rename: pipeline.Rename{Basename: "woostify-sites", Suffix: ".min"}, inputPath: "js/app.js", expectedPath: "js/woostify-sites.min.js"},
		{name: "extension without dot", rename: pipeline.Rename{Extension: "css"}, inputPath: "admin.scss", expectedPath: "admin.css"},
		{name: "no extension", rename: pipeline.Rename{Suffix: "-copy"}, inputPath: "LICENSE", expectedPath: "LICENSE-copy"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			renamed, renameError := testCase.rename.Apply(context.Background(), []pipeline.FileRecord{{Path: testCase.inputPath}})
			require.NoError(subtest, renameError)
			require.Equal(subtest, testCase.expectedPath, renamed[0].Path)
		})
	}
}

func TestApplyChainsTransforms(testInstance *testing.T) {
	upper := pipeline.MapContents("upper", func(record pipeline.FileRecord) ([]byte, error) {
		return []byte(strings.ToUpper(string(record.Contents))), nil
	})
	records := []pipeline.FileRecord{{Path: "a.js", Contents: []byte("var a")}}

	result, applyError := pipeline.Apply(context.Background(), records, upper, pipeline.Rename{Suffix: ".min"}, nil)
	require.NoError(testInstance, applyError)
	require.Equal(testInstance, []string{"a.min.js"}, recordPaths(result))
	require.Equal(testInstance, "VAR A", string(result[0].Contents))
}

func TestApplyReportsTransformFailure(testInstance *testing.T) {
	failure := errors.New("unexpected token")
	broken := pipeline.MapContents("minify", func(pipeline.FileRecord) ([]byte, error) {
		return nil, failure
	})

	_, applyError := pipeline.Apply(context.Background(), []pipeline.FileRecord{{Path: "app.js"}}, broken)
	require.ErrorIs(testInstance, applyError, failure)
	require.EqualError(testInstance, applyError, "minify: app.js: unexpected token")
}

func TestApplyStopsWhenCancelled(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	cancel()
	_, applyError := pipeline.Apply(executionContext, []pipeline.FileRecord{{Path: "a.js"}}, pipeline.Rename{Suffix: ".min"})
	require.ErrorIs(testInstance, applyError, context.Canceled)
}
