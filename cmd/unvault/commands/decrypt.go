package commands

import (
	"fmt"

	"github.com/mscno/unvault"
	"github.com/mscno/unvault/pkg/fileutils"
	"github.com/mscno/unvault/pkg/yaml"
)

// DecryptCmd decrypts every vault value of a YAML file and prints the result.
type DecryptCmd struct {
	File         string          `arg:"" optional:"" help:"YAML file to decrypt; reads stdin when omitted or '-'"`
	StrictIndent bool            `help:"Fail on vault blocks indented with a mix of tabs and spaces"`
	Verify       bool            `help:"Check that the decrypted output is valid YAML before printing it"`
	Credentials  credentialFlags `embed:""`
}

func (c *DecryptCmd) Run(ctx *cliCtx) error {
	ctx.Logger.Debug("decrypting document", "file", c.File, "strict_indent", c.StrictIndent, "verify", c.Verify)

	doc, err := fileutils.ReadDocument(c.File, ctx.Stdin)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("document read", "lines", len(doc.Lines))

	creds, err := c.Credentials.resolve(ctx)
	if err != nil {
		return err
	}

	conv := unvault.NewConverter(creds, ctx.Logger)
	conv.Strict = c.StrictIndent
	out, err := conv.Convert(doc)
	if err != nil {
		return fmt.Errorf("error decrypting %s: %w", displayName(c.File), err)
	}

	data := out.Bytes()
	if c.Verify {
		if err := yaml.Verify(data); err != nil {
			return fmt.Errorf("decrypted %s is not valid YAML: %w", displayName(c.File), err)
		}
	}

	_, err = ctx.Stdout.Write(data)
	return err
}

func displayName(file string) string {
	if file == "" || file == "-" {
		return "stdin"
	}
	return file
}
