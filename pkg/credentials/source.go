package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/mscno/unvault/pkg/oskeyring"
)

// Kind identifies where a credential came from.
type Kind int

const (
	KindEnvPassword Kind = iota + 1
	KindEnvPasswordFile
	KindDefaultFile
	KindIdentity
	KindKeyring
)

func (k Kind) String() string {
	switch k {
	case KindEnvPassword:
		return "env-password"
	case KindEnvPasswordFile:
		return "env-password-file"
	case KindDefaultFile:
		return "default-file"
	case KindIdentity:
		return "identity"
	case KindKeyring:
		return "keyring"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source produces one candidate vault password.
type Source interface {
	Kind() Kind
	// Label names the vault identity for identity and keyring sources.
	Label() string
	// Required reports whether a failure of this source aborts resolution.
	Required() bool
	Resolve(ctx context.Context) (string, error)
	String() string
}

// EnvPassword is a password given directly in an environment variable.
type EnvPassword struct {
	Var   string
	Value string
}

func (s EnvPassword) Kind() Kind     { return KindEnvPassword }
func (s EnvPassword) Label() string  { return "" }
func (s EnvPassword) Required() bool { return true }
func (s EnvPassword) String() string { return "environment variable " + s.Var }

func (s EnvPassword) Resolve(context.Context) (string, error) {
	return s.Value, nil
}

// EnvPasswordFile is a password file named by an environment variable.
type EnvPasswordFile struct {
	Var    string
	Path   string
	Helper Executor
}

func (s EnvPasswordFile) Kind() Kind     { return KindEnvPasswordFile }
func (s EnvPasswordFile) Label() string  { return "" }
func (s EnvPasswordFile) Required() bool { return true }
func (s EnvPasswordFile) String() string {
	return fmt.Sprintf("password file %s (from %s)", s.Path, s.Var)
}

func (s EnvPasswordFile) Resolve(ctx context.Context) (string, error) {
	return readPasswordFile(ctx, s.Helper, s.Path)
}

// DefaultFile is the password file in the user's home directory.
type DefaultFile struct {
	Path   string
	Helper Executor
}

func (s DefaultFile) Kind() Kind     { return KindDefaultFile }
func (s DefaultFile) Label() string  { return "" }
func (s DefaultFile) Required() bool { return true }
func (s DefaultFile) String() string { return "default password file " + s.Path }

func (s DefaultFile) Resolve(ctx context.Context) (string, error) {
	return readPasswordFile(ctx, s.Helper, s.Path)
}

// IdentityEntry is one label@path entry of the identity list. Failures are
// not fatal since another identity may still open the vault.
type IdentityEntry struct {
	Name   string
	Path   string
	Helper Executor
}

func (s IdentityEntry) Kind() Kind     { return KindIdentity }
func (s IdentityEntry) Label() string  { return s.Name }
func (s IdentityEntry) Required() bool { return false }
func (s IdentityEntry) String() string {
	return fmt.Sprintf("vault identity %s@%s", s.Name, s.Path)
}

func (s IdentityEntry) Resolve(ctx context.Context) (string, error) {
	return readPasswordFile(ctx, s.Helper, s.Path)
}

// KeyringEntry is a password stored in the OS keyring.
type KeyringEntry struct {
	Service string
	User    string
	Keyring oskeyring.Service
}

func (s KeyringEntry) Kind() Kind     { return KindKeyring }
func (s KeyringEntry) Label() string  { return s.User }
func (s KeyringEntry) Required() bool { return false }
func (s KeyringEntry) String() string {
	return fmt.Sprintf("keyring entry %s/%s", s.Service, s.User)
}

func (s KeyringEntry) Resolve(context.Context) (string, error) {
	kr := s.Keyring
	if kr == nil {
		kr = oskeyring.NewSystem()
	}
	secret, err := kr.Get(s.Service, s.User)
	if errors.Is(err, oskeyring.ErrNotFound) {
		return "", nil
	}
	return secret, err
}

var (
	_ Source = EnvPassword{}
	_ Source = EnvPasswordFile{}
	_ Source = DefaultFile{}
	_ Source = IdentityEntry{}
	_ Source = KeyringEntry{}
)
