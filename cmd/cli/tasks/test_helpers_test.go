package tasks_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/internal/execshell"
)

const (
	testPackageJSONConstant = `{"name": "woostify-sites-library", "slug": "woostify-sites", "version": "1.4.2", "author": "Woostify", "textdomain": "woostify-sites-library"}`
	testRecipeConstant      = `
default: build
tasks:
  - task:
      name: clean
      description: Remove previous build output
      action: clean
      with:
        patterns: ["dist/*"]
  - task:
      name: lint
      action: exec
      with:
        command: phpcs
        arguments: ["--version=${version}"]
  - task:
      name: build
      description: Build the plugin
      after: [clean, lint]
      action: notify
      with:
        message: "Built ${name} ${version}"
  - task:
      name: release
      sequence: [lint, build]
`
)

type recordingCommandRunner struct {
	mutex    sync.Mutex
	commands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	runner.commands = append(runner.commands, command)
	return execshell.ExecutionResult{StandardOutput: "phpcs ok"}, nil
}

type commandFixture struct {
	root      string
	tasksFile string
	cachePath string
}

func newCommandFixture(testInstance *testing.T) commandFixture {
	testInstance.Helper()
	root := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "package.json"), []byte(testPackageJSONConstant), 0o644))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(root, "dist"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "dist", "stale.zip"), []byte("PK"), 0o644))

	tasksFile := filepath.Join(testInstance.TempDir(), "tasks.yaml")
	require.NoError(testInstance, os.WriteFile(tasksFile, []byte(testRecipeConstant), 0o644))

	return commandFixture{
		root:      root,
		tasksFile: tasksFile,
		cachePath: filepath.Join(testInstance.TempDir(), "transforms.db"),
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(output)
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return output.String(), executionError
}
