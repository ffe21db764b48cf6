package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor runs a password helper program.
type Executor interface {
	// Execute runs name with args and returns its stdout and stderr.
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// CommandExecutor runs helpers as child processes.
type CommandExecutor struct{}

// Execute runs the command and waits for it to exit. ctx is not given a
// deadline by the CLI, so a helper that never exits blocks the run.
func (CommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// readPasswordFile returns the password stored in path. Executable files are
// run without arguments and the first line of their output is the password.
func readPasswordFile(ctx context.Context, helper Executor, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialFileUnreadable, err)
	}
	if isExecutable(info) {
		return runPasswordHelper(ctx, helper, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialFileUnreadable, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func runPasswordHelper(ctx context.Context, helper Executor, path string) (string, error) {
	if helper == nil {
		helper = CommandExecutor{}
	}
	// A bare file name would otherwise be looked up in $PATH.
	name, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialFileUnreadable, err)
	}
	stdout, stderr, err := helper.Execute(ctx, name)
	if err != nil {
		perr := &ProcessError{Path: path, Stderr: string(stderr)}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		} else if perr.Stderr == "" {
			perr.Stderr = err.Error()
		}
		return "", perr
	}

	first, _, _ := strings.Cut(string(stdout), "\n")
	return strings.TrimSuffix(first, "\r"), nil
}

func isExecutable(info os.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
