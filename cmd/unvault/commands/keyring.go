package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// KeyringCmd groups the keyring subcommands.
type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a vault password read from stdin"`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a stored vault password"`
}

type keyringEntryFlags struct {
	User    string `help:"Keyring user" required:"" env:"UNVAULT_KEYRING_USER"`
	Service string `help:"Keyring service" default:"ansible-vault" env:"UNVAULT_KEYRING_SERVICE"`
}

// KeyringSetCmd stores the first line of stdin as the vault password.
type KeyringSetCmd struct {
	Entry keyringEntryFlags `embed:""`
}

func (c *KeyringSetCmd) Run(ctx *cliCtx) error {
	line, err := bufio.NewReader(ctx.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("error reading password from stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("refusing to store an empty vault password")
	}

	if err := ctx.Keyring.Set(c.Entry.Service, c.Entry.User, password); err != nil {
		return fmt.Errorf("error storing vault password: %w", err)
	}
	ctx.Logger.Info("stored vault password", "service", c.Entry.Service, "user", c.Entry.User)
	return nil
}

// KeyringDeleteCmd removes the vault password entry.
type KeyringDeleteCmd struct {
	Entry keyringEntryFlags `embed:""`
}

func (c *KeyringDeleteCmd) Run(ctx *cliCtx) error {
	if err := ctx.Keyring.Delete(c.Entry.Service, c.Entry.User); err != nil {
		return fmt.Errorf("error deleting vault password: %w", err)
	}
	ctx.Logger.Info("deleted vault password", "service", c.Entry.Service, "user", c.Entry.User)
	return nil
}
