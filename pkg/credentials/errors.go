package credentials

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentialFound means every configured source came up empty.
var ErrNoCredentialFound = errors.New("no vault password found: set ANSIBLE_VAULT_PASSWORD, ANSIBLE_VAULT_PASSWORD_FILE or ANSIBLE_VAULT_IDENTITY_LIST, or create ~/.vault_pass")

// ErrCredentialFileUnreadable is returned when a password file cannot be read.
var ErrCredentialFileUnreadable = errors.New("failed to read vault password file")

// ErrCredentialProcessFailed is returned when an executable password file fails.
var ErrCredentialProcessFailed = errors.New("failed to execute vault password file")

// ErrEmptyCredential is returned by a source that resolved to an empty password.
var ErrEmptyCredential = errors.New("vault password is empty")

// ProcessError describes a password helper that exited unsuccessfully.
type ProcessError struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s %s", ErrCredentialProcessFailed, e.Path)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return ErrCredentialProcessFailed
}
