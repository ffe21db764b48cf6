// Package vault implements the Ansible Vault 1.1/1.2 AES256 envelope.
//
// An envelope is a header line followed by hex text wrapped at 80 columns:
//
//	$ANSIBLE_VAULT;1.1;AES256
//	3633...
//
// The hex text decodes to three newline separated hex fields: the KDF salt,
// the HMAC-SHA256 of the ciphertext, and the AES-256-CTR ciphertext of the
// PKCS#7 padded plaintext. Keys are derived with PBKDF2-HMAC-SHA256.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// HeaderPrefix starts every vault envelope.
	HeaderPrefix = "$ANSIBLE_VAULT"

	cipherName = "AES256"
	iterations = 10000
	keyLen     = 32
	saltLen    = 32
	lineWidth  = 80
)

// ErrInvalidFormat is returned when the envelope cannot be parsed.
var ErrInvalidFormat = errors.New("invalid vault format")

// ErrHMACMismatch is returned when the password does not match the envelope.
var ErrHMACMismatch = errors.New("vault HMAC mismatch")

// Header is the parsed first line of an envelope.
type Header struct {
	Version string
	Cipher  string
	VaultID string
}

func (h Header) String() string {
	parts := []string{HeaderPrefix, h.Version, h.Cipher}
	if h.VaultID != "" {
		parts = append(parts, h.VaultID)
	}
	return strings.Join(parts, ";")
}

// ParseHeader parses a `$ANSIBLE_VAULT;<version>;<cipher>[;<vault-id>]` line.
func ParseHeader(line string) (Header, error) {
	fields := strings.Split(strings.TrimSpace(line), ";")
	if len(fields) < 3 || fields[0] != HeaderPrefix {
		return Header{}, fmt.Errorf("%w: bad header %q", ErrInvalidFormat, line)
	}
	h := Header{Version: fields[1], Cipher: fields[2]}
	switch h.Version {
	case "1.1":
	case "1.2":
		if len(fields) > 3 {
			h.VaultID = fields[3]
		}
	default:
		return Header{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidFormat, h.Version)
	}
	if h.Cipher != cipherName {
		return Header{}, fmt.Errorf("%w: unsupported cipher %q", ErrInvalidFormat, h.Cipher)
	}
	return h, nil
}

// Decryptor decrypts vault envelopes. The zero value is ready to use.
type Decryptor struct{}

// Decrypt implements the decrypt primitive used by the converter.
func (Decryptor) Decrypt(ciphertext, password []byte) ([]byte, error) {
	return Decrypt(ciphertext, password)
}

// Decrypt opens an envelope with password.
func Decrypt(envelope, password []byte) ([]byte, error) {
	header, body, _ := bytes.Cut(bytes.TrimLeft(envelope, " \t\r\n"), []byte("\n"))
	if _, err := ParseHeader(string(header)); err != nil {
		return nil, err
	}

	outer, err := hex.DecodeString(stripSpace(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	fields := bytes.Split(outer, []byte("\n"))
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: expected 3 fields, got %d", ErrInvalidFormat, len(fields))
	}
	var decoded [3][]byte
	for i, f := range fields {
		decoded[i], err = hex.DecodeString(strings.TrimSpace(string(f)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	salt, mac, ct := decoded[0], decoded[1], decoded[2]

	cipherKey, hmacKey, iv := deriveKeys(password, salt)
	h := hmac.New(sha256.New, hmacKey)
	h.Write(ct)
	if !hmac.Equal(h.Sum(nil), mac) {
		return nil, ErrHMACMismatch
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(padded, ct)
	return unpad(padded)
}

// Encrypt seals plaintext into a version 1.1 envelope, or 1.2 when vaultID is set.
// The result ends with a newline.
func Encrypt(plaintext, password []byte, vaultID string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return encrypt(plaintext, password, vaultID, salt)
}

func encrypt(plaintext, password []byte, vaultID string, salt []byte) ([]byte, error) {
	cipherKey, hmacKey, iv := deriveKeys(password, salt)
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	padded := pad(plaintext)
	ct := make([]byte, len(padded))
	cipher.NewCTR(block, iv).XORKeyStream(ct, padded)

	h := hmac.New(sha256.New, hmacKey)
	h.Write(ct)

	inner := strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(h.Sum(nil)),
		hex.EncodeToString(ct),
	}, "\n")
	outer := hex.EncodeToString([]byte(inner))

	header := Header{Version: "1.1", Cipher: cipherName}
	if vaultID != "" {
		header.Version = "1.2"
		header.VaultID = vaultID
	}

	var buf bytes.Buffer
	buf.WriteString(header.String())
	buf.WriteByte('\n')
	for len(outer) > 0 {
		n := min(lineWidth, len(outer))
		buf.WriteString(outer[:n])
		buf.WriteByte('\n')
		outer = outer[n:]
	}
	return buf.Bytes(), nil
}

func deriveKeys(password, salt []byte) (cipherKey, hmacKey, iv []byte) {
	dk := pbkdf2.Key(password, salt, iterations, 2*keyLen+aes.BlockSize, sha256.New)
	return dk[:keyLen], dk[keyLen : 2*keyLen], dk[2*keyLen:]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad ciphertext length", ErrInvalidFormat)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidFormat)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrInvalidFormat)
		}
	}
	return b[:len(b)-n], nil
}

func stripSpace(b []byte) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, string(b))
}
