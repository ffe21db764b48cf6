// Package credentials resolves the vault passwords used to open vault blocks.
//
// Passwords are collected from every configured source, in a fixed order:
//
//  1. ANSIBLE_VAULT_PASSWORD
//  2. the file named by ANSIBLE_VAULT_PASSWORD_FILE, or else ~/.vault_pass if it exists
//  3. each label@path entry of ANSIBLE_VAULT_IDENTITY_LIST
//  4. the OS keyring entry named by UNVAULT_KEYRING_USER
//
// Failures of the first two sources are fatal. Identity and keyring entries
// are best effort: a failing entry is logged and skipped.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mscno/unvault/pkg/oskeyring"
)

// PlanOption customizes the sources built by Plan.
type PlanOption func(*planOptions)

type planOptions struct {
	helper  Executor
	keyring oskeyring.Service
	exists  func(path string) bool
}

// WithExecutor sets the executor used to run executable password files.
func WithExecutor(e Executor) PlanOption {
	return func(o *planOptions) {
		o.helper = e
	}
}

// WithKeyring sets the keyring used by the keyring source.
func WithKeyring(k oskeyring.Service) PlanOption {
	return func(o *planOptions) {
		o.keyring = k
	}
}

// Plan returns the sources configured by cfg in resolution order.
func Plan(cfg Config, opts ...PlanOption) []Source {
	o := &planOptions{
		helper: CommandExecutor{},
		exists: fileExists,
	}
	for _, opt := range opts {
		opt(o)
	}

	var sources []Source
	if cfg.Password != "" {
		sources = append(sources, EnvPassword{Var: PasswordEnv, Value: cfg.Password})
	}

	if cfg.PasswordFile != "" {
		sources = append(sources, EnvPasswordFile{Var: PasswordFileEnv, Path: cfg.PasswordFile, Helper: o.helper})
	} else if path := cfg.DefaultPasswordPath(); path != "" && o.exists(path) {
		sources = append(sources, DefaultFile{Path: path, Helper: o.helper})
	}

	for _, id := range ParseIdentityList(cfg.IdentityList) {
		id.Helper = o.helper
		sources = append(sources, id)
	}

	if cfg.KeyringUser != "" {
		service := cfg.KeyringService
		if service == "" {
			service = oskeyring.DefaultService
		}
		sources = append(sources, KeyringEntry{Service: service, User: cfg.KeyringUser, Keyring: o.keyring})
	}
	return sources
}

// ParseIdentityList parses label@path entries. Entries without an '@' or
// with an empty label are dropped.
func ParseIdentityList(entries []string) []IdentityEntry {
	var ids []IdentityEntry
	for _, entry := range entries {
		label, path, ok := strings.Cut(strings.TrimSpace(entry), "@")
		if !ok || label == "" {
			continue
		}
		ids = append(ids, IdentityEntry{Name: label, Path: path})
	}
	return ids
}

// Resolve consults sources in order and returns every password they produce.
// A failing required source aborts resolution; a failing optional source is
// logged and skipped. Empty passwords are skipped.
func Resolve(ctx context.Context, sources []Source, logger *slog.Logger) (*List, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var creds []*Credential
	for _, src := range sources {
		logger.Debug("attempting to get vault password", "source", src.String())

		password, err := src.Resolve(ctx)
		if err != nil {
			logHelperStderr(logger, err)
			if src.Required() {
				return nil, fmt.Errorf("%s: %w", src, err)
			}
			logger.Warn("skipping vault password source", "source", src.String(), "error", err)
			continue
		}

		cred, err := New(src.Kind(), src.Label(), password)
		if errors.Is(err, ErrEmptyCredential) {
			logger.Debug("vault password source is empty", "source", src.String())
			continue
		}
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}

	if len(creds) == 0 {
		return nil, ErrNoCredentialFound
	}
	logger.Debug("resolved vault passwords", "count", len(creds))
	return NewList(creds...), nil
}

// ResolveConfig plans and resolves the sources configured by cfg.
func ResolveConfig(ctx context.Context, cfg Config, logger *slog.Logger, opts ...PlanOption) (*List, error) {
	return Resolve(ctx, Plan(cfg, opts...), logger)
}

func logHelperStderr(logger *slog.Logger, err error) {
	var perr *ProcessError
	if !errors.As(err, &perr) {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(perr.Stderr, "\r\n"), "\n") {
		if line != "" {
			logger.Error(line, "helper", perr.Path)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
