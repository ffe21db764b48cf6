package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mscno/unvault/pkg/credentials"
	"github.com/mscno/unvault/pkg/vault"
)

// EncryptStringCmd encrypts a value with the first resolved vault password.
type EncryptStringCmd struct {
	Value       string          `arg:"" optional:"" help:"Value to encrypt; reads stdin when omitted, keeping any trailing newline (use printf, not echo, to avoid one)"`
	Name        string          `help:"Key to print the block under" short:"n"`
	VaultID     string          `help:"Vault ID for the header; defaults to the identity label of the password used"`
	Credentials credentialFlags `embed:""`
}

func (c *EncryptStringCmd) Run(ctx *cliCtx) error {
	value := c.Value
	if value == "" {
		ctx.Logger.Debug("reading value from stdin")
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
		// Sealed as read, like ansible-vault; "echo x" seals "x\n".
		value = string(data)
	}
	if value == "" {
		return errors.New("nothing to encrypt")
	}

	creds, err := c.Credentials.resolve(ctx)
	if err != nil {
		return err
	}
	cred, _ := creds.First()

	vaultID := c.VaultID
	if vaultID == "" && cred.Kind() == credentials.KindIdentity {
		vaultID = cred.Label()
	}
	ctx.Logger.Debug("encrypting value", "source", cred.Kind().String(), "vault_id", vaultID)

	var envelope []byte
	err = cred.Use(func(password []byte) error {
		var err error
		envelope, err = vault.Encrypt([]byte(value), password, vaultID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error encrypting value: %w", err)
	}

	var b strings.Builder
	if c.Name != "" {
		b.WriteString(c.Name + ": ")
	}
	b.WriteString("!vault |\n")
	for _, line := range strings.Split(strings.TrimSuffix(string(envelope), "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	_, err = io.WriteString(ctx.Stdout, b.String())
	return err
}
