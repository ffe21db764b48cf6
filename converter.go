package unvault

import (
	"io"
	"io/fs"
	"log/slog"

	"github.com/mscno/unvault/pkg/credentials"
	"github.com/mscno/unvault/pkg/fileutils"
	"github.com/mscno/unvault/pkg/scanner"
	"github.com/mscno/unvault/pkg/vault"
	"github.com/mscno/unvault/pkg/yaml"
)

// Converter replaces every vault block of a document with its plaintext.
type Converter struct {
	// Decryptor opens vault envelopes. Defaults to vault.Decryptor.
	Decryptor Decryptor
	// Credentials are tried in order for every block.
	Credentials *credentials.List
	// Logger defaults to a discard logger.
	Logger *slog.Logger
	// Strict rejects blocks indented with a mix of tabs and spaces.
	Strict bool
}

// NewConverter returns a Converter using the vault cipher and creds.
func NewConverter(creds *credentials.List, logger *slog.Logger) *Converter {
	return &Converter{
		Decryptor:   vault.Decryptor{},
		Credentials: creds,
		Logger:      logger,
	}
}

// Convert decrypts every block of doc. Lines outside blocks are copied
// unchanged, and a block written with CRLF endings is replaced with CRLF
// lines. Nothing is returned unless every block decrypts.
func (c *Converter) Convert(doc fileutils.Document) (fileutils.Document, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := c.Decryptor
	if d == nil {
		d = vault.Decryptor{}
	}

	var opts []scanner.Option
	if c.Strict {
		opts = append(opts, scanner.WithStrictIndentation())
	}

	out := fileutils.Document{
		Lines:        make([]string, 0, len(doc.Lines)),
		FinalNewline: doc.FinalNewline,
	}
	blocks := 0
	s := scanner.New(doc.Lines, opts...)
	for s.Scan() {
		item := s.Item()
		if !item.IsBlock() {
			out.Lines = append(out.Lines, item.Line)
			continue
		}

		block := item.Block
		logger.Debug("decrypting vault block", "line", block.Line, "key", block.PreText)
		lines, err := DecryptBlock(d, block.Ciphertext, c.Credentials)
		if err != nil {
			return fileutils.Document{}, blockError(block.Line, err)
		}
		rendered := yaml.Render(block.PreText, block.BaseIndent, lines)
		if block.CRLF {
			for i := range rendered {
				rendered[i] += "\r"
			}
		}
		out.Lines = append(out.Lines, rendered...)
		blocks++
	}
	if err := s.Err(); err != nil {
		return fileutils.Document{}, err
	}

	logger.Debug("document converted", "lines", len(doc.Lines), "blocks", blocks)
	return out, nil
}

// ConvertFS reads name from fsys and converts it.
func (c *Converter) ConvertFS(fsys fs.FS, name string) (fileutils.Document, error) {
	doc, err := fileutils.ReadDocumentFS(fsys, name)
	if err != nil {
		return fileutils.Document{}, err
	}
	return c.Convert(doc)
}
