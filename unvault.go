// Package unvault decrypts the Ansible Vault values embedded in a YAML document
// and writes the document back with the plaintext in place.
package unvault

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mscno/unvault/pkg/credentials"
	"github.com/mscno/unvault/pkg/fileutils"
)

var (
	// ErrDecryptionFailed is returned when no credential opens a vault block.
	ErrDecryptionFailed = errors.New("decryption failed: no matching vault password found")
	// ErrEncodingInvalid is returned when a vault block decrypts to bytes that are not UTF-8.
	ErrEncodingInvalid = errors.New("decrypted vault value is not valid UTF-8")
	// ErrInputUnreadable is returned when the input document cannot be read.
	ErrInputUnreadable = fileutils.ErrInputUnreadable
)

// Decryptor opens a single vault envelope with a password.
type Decryptor interface {
	Decrypt(ciphertext, password []byte) ([]byte, error)
}

// DecryptBlock tries each credential in order and returns the plaintext lines
// produced by the first one that opens ciphertext.
func DecryptBlock(d Decryptor, ciphertext string, creds *credentials.List) ([]string, error) {
	var invalidUTF8 bool
	for _, cred := range creds.All() {
		var plaintext []byte
		var decryptErr error
		err := cred.Use(func(password []byte) error {
			plaintext, decryptErr = d.Decrypt([]byte(ciphertext), password)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if decryptErr != nil {
			continue
		}
		if !utf8.Valid(plaintext) {
			invalidUTF8 = true
			continue
		}
		return splitLines(string(plaintext)), nil
	}

	if invalidUTF8 {
		return nil, ErrEncodingInvalid
	}
	return nil, ErrDecryptionFailed
}

// splitLines splits on "\n", drops a trailing "\r" from each line and ignores
// the empty segment after a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func blockError(line int, err error) error {
	return fmt.Errorf("vault block at line %d: %w", line, err)
}
