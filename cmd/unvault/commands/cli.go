package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/awnumar/memguard"
	"github.com/caarlos0/env/v11"
	"github.com/mscno/unvault/pkg/credentials"
	"github.com/mscno/unvault/pkg/dotenv"
	"github.com/mscno/unvault/pkg/oskeyring"
)

type cliCtx struct {
	context.Context
	Logger  *slog.Logger
	Keyring oskeyring.Service
	Stdin   io.Reader
	Stdout  io.Writer
	Version string
	// Environ overrides the process environment when set.
	Environ map[string]string
}

type cli struct {
	LogLevel string `help:"Log level (trace, debug, info, warn, error, off)" default:"info" env:"LOG_LEVEL"`

	Decrypt       DecryptCmd       `cmd:"" default:"withargs" help:"Decrypt the vault values of a YAML file (default)"`
	EncryptString EncryptStringCmd `cmd:"" name:"encrypt-string" help:"Encrypt a value as a !vault block"`
	Keyring       KeyringCmd       `cmd:"" help:"Manage the vault password stored in the OS keyring"`
	Version       VersionCmd       `cmd:"" help:"Show version"`

	ShowVersion kong.VersionFlag `name:"version" help:"Show version"`
}

func Execute(version string) {
	memguard.CatchInterrupt()

	var cli cli
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("unvault"),
		kong.Description("unvault decrypts Ansible Vault values embedded in YAML files"),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&cliCtx{
		Context: context.Background(),
		Logger:  newLogger(os.Stderr, cli.LogLevel),
		Keyring: oskeyring.NewSystem(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Version: version,
	})
	memguard.Purge()
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// parseLevel maps a log level name to a slog level. Names are case-insensitive;
// unknown names fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "off":
		return slog.LevelError + 4
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// credentialFlags are shared by the commands that need vault passwords.
type credentialFlags struct {
	EnvFile        string `help:"Read vault settings from a dotenv file; the process environment wins" type:"path"`
	KeyringUser    string `help:"Also try the OS keyring entry for this user"`
	KeyringService string `help:"Keyring service name (default ansible-vault)"`
}

func (f credentialFlags) config(ctx *cliCtx) (credentials.Config, error) {
	environ := ctx.Environ
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	if f.EnvFile != "" {
		ctx.Logger.Debug("loading dotenv file", "path", f.EnvFile)
		vars, err := dotenv.Read(f.EnvFile)
		if err != nil {
			return credentials.Config{}, err
		}
		environ = dotenv.Overlay(environ, vars)
	}

	cfg, err := credentials.LoadConfig(environ)
	if err != nil {
		return credentials.Config{}, fmt.Errorf("error loading vault configuration: %w", err)
	}
	if f.KeyringUser != "" {
		cfg.KeyringUser = f.KeyringUser
	}
	if f.KeyringService != "" {
		cfg.KeyringService = f.KeyringService
	}
	return cfg, nil
}

func (f credentialFlags) resolve(ctx *cliCtx) (*credentials.List, error) {
	cfg, err := f.config(ctx)
	if err != nil {
		return nil, err
	}
	var opts []credentials.PlanOption
	if ctx.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(ctx.Keyring))
	}
	return credentials.ResolveConfig(ctx, cfg, ctx.Logger, opts...)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *cliCtx) error {
	_, err := fmt.Fprintln(ctx.Stdout, ctx.Version)
	return err
}
