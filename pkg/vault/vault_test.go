package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Header
		wantErr bool
	}{
		{name: "1.1", in: "$ANSIBLE_VAULT;1.1;AES256", want: Header{Version: "1.1", Cipher: "AES256"}},
		{name: "1.2 with id", in: "$ANSIBLE_VAULT;1.2;AES256;prod", want: Header{Version: "1.2", Cipher: "AES256", VaultID: "prod"}},
		{name: "trailing whitespace", in: "$ANSIBLE_VAULT;1.1;AES256 \r", want: Header{Version: "1.1", Cipher: "AES256"}},
		{name: "1.0 unsupported", in: "$ANSIBLE_VAULT;1.0;AES", wantErr: true},
		{name: "other cipher", in: "$ANSIBLE_VAULT;1.1;AES128", wantErr: true},
		{name: "not a vault", in: "hello", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidFormat))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, plaintext := range []string{"", "bob", "password123\n", "line1\nline2\nline3\n", strings.Repeat("x", 100)} {
		env, err := Encrypt([]byte(plaintext), []byte("secret"), "")
		assert.NoError(t, err)
		got, err := Decrypt(env, []byte("secret"))
		assert.NoError(t, err)
		assert.Equal(t, plaintext, string(got))
	}
}

func TestEncryptLayout(t *testing.T) {
	env, err := Encrypt([]byte("supersecret"), []byte("pw"), "")
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(env), "\n"), "\n")
	assert.Equal(t, "$ANSIBLE_VAULT;1.1;AES256", lines[0])
	for _, l := range lines[1 : len(lines)-1] {
		assert.Equal(t, 80, len(l))
	}
	assert.True(t, len(lines[len(lines)-1]) <= 80)
}

func TestEncryptWithVaultID(t *testing.T) {
	env, err := Encrypt([]byte("value"), []byte("pw"), "dev")
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(env, []byte("$ANSIBLE_VAULT;1.2;AES256;dev\n")))

	got, err := Decrypt(env, []byte("pw"))
	assert.NoError(t, err)
	assert.Equal(t, "value", string(got))
}

func TestEncryptDeterministicForSalt(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, saltLen)
	a, err := encrypt([]byte("same"), []byte("pw"), "", salt)
	assert.NoError(t, err)
	b, err := encrypt([]byte("same"), []byte("pw"), "", salt)
	assert.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestDecryptWrongPassword(t *testing.T) {
	env, err := Encrypt([]byte("value"), []byte("right"), "")
	assert.NoError(t, err)
	_, err = Decrypt(env, []byte("wrong"))
	assert.True(t, errors.Is(err, ErrHMACMismatch))
}

func TestDecryptToleratesIndentationAndBlankLines(t *testing.T) {
	env, err := Encrypt([]byte("value"), []byte("pw"), "")
	assert.NoError(t, err)

	var b strings.Builder
	for _, l := range strings.Split(string(env), "\n") {
		b.WriteString("   " + l + " \r\n")
	}
	got, err := Decrypt([]byte(b.String()), []byte("pw"))
	assert.NoError(t, err)
	assert.Equal(t, "value", string(got))
}

func TestDecryptTampered(t *testing.T) {
	env, err := Encrypt([]byte("value"), []byte("pw"), "")
	assert.NoError(t, err)

	lines := strings.Split(string(env), "\n")
	body := []byte(lines[1])
	if body[len(body)-1] == '0' {
		body[len(body)-1] = '1'
	} else {
		body[len(body)-1] = '0'
	}
	lines[1] = string(body)
	_, err = Decrypt([]byte(strings.Join(lines, "\n")), []byte("pw"))
	assert.Error(t, err)
}

func TestDecryptMalformed(t *testing.T) {
	tests := map[string]string{
		"no header":  "6162\n",
		"not hex":    "$ANSIBLE_VAULT;1.1;AES256\nzzzz\n",
		"one field":  "$ANSIBLE_VAULT;1.1;AES256\n6162\n",
		"empty body": "$ANSIBLE_VAULT;1.1;AES256\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt([]byte(in), []byte("pw"))
			assert.True(t, errors.Is(err, ErrInvalidFormat))
		})
	}
}
