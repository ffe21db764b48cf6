package unvault

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/assert/v2"
	"github.com/mscno/unvault/pkg/credentials"
	"github.com/mscno/unvault/pkg/fileutils"
	"github.com/mscno/unvault/pkg/scanner"
	"github.com/mscno/unvault/pkg/vault"
)

func creds(t *testing.T, passwords ...string) *credentials.List {
	t.Helper()
	var list []*credentials.Credential
	for _, pw := range passwords {
		c, err := credentials.New(credentials.KindEnvPassword, "", pw)
		assert.NoError(t, err)
		list = append(list, c)
	}
	return credentials.NewList(list...)
}

// vaultBlock encrypts plaintext and formats it as a !vault value under key.
func vaultBlock(t *testing.T, key string, indent int, plaintext, password string) string {
	t.Helper()
	envelope, err := vault.Encrypt([]byte(plaintext), []byte(password), "")
	assert.NoError(t, err)

	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	b.WriteString(pad + key + ": !vault |\n")
	for _, line := range strings.Split(strings.TrimSuffix(string(envelope), "\n"), "\n") {
		b.WriteString(pad + "  " + line + "\n")
	}
	return b.String()
}

func convert(t *testing.T, c *Converter, input string) (string, error) {
	t.Helper()
	out, err := c.Convert(fileutils.SplitLines([]byte(input)))
	return string(out.Bytes()), err
}

// fakeDecryptor returns plaintexts keyed by password and fails for anything else.
type fakeDecryptor struct {
	plaintexts map[string]string
	calls      []string
}

func (f *fakeDecryptor) Decrypt(_ []byte, password []byte) ([]byte, error) {
	f.calls = append(f.calls, string(password))
	pt, ok := f.plaintexts[string(password)]
	if !ok {
		return nil, errors.New("bad password")
	}
	return []byte(pt), nil
}

func TestConvertWithoutBlocksIsIdentity(t *testing.T) {
	c := NewConverter(creds(t, "pw"), nil)
	for _, input := range []string{
		"",
		"\n",
		"a: 1\nb: 2",
		"a: 1\r\nb:\r\n  - x\r\n",
		"# comment\n\n\nkey: '!vault |'\n\n",
	} {
		got, err := convert(t, c, input)
		assert.NoError(t, err)
		assert.Equal(t, input, got)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	input := "app:\n" +
		"  name: demo\n" +
		vaultBlock(t, "password", 2, "hunter2\n", "pw") +
		vaultBlock(t, "empty", 2, "", "pw") +
		vaultBlock(t, "cert", 2, "line one\r\nline two\n", "pw") +
		"  port: 8080\n"

	got, err := convert(t, NewConverter(creds(t, "pw"), nil), input)
	assert.NoError(t, err)
	assert.Equal(t, "app:\n"+
		"  name: demo\n"+
		"  password: hunter2\n"+
		"  empty: ''\n"+
		"  cert: |\n"+
		"    line one\n"+
		"    line two\n"+
		"  port: 8080\n", got)
}

func TestConvertListItems(t *testing.T) {
	envelope, err := vault.Encrypt([]byte("s3cret"), []byte("pw"), "")
	assert.NoError(t, err)
	body := "    " + strings.ReplaceAll(strings.TrimSuffix(string(envelope), "\n"), "\n", "\n    ")

	input := "users:\n  - !vault |\n" + body + "\n  - plain\n"
	got, err := convert(t, NewConverter(creds(t, "pw"), nil), input)
	assert.NoError(t, err)
	assert.Equal(t, "users:\n  - s3cret\n  - plain\n", got)
}

func TestConvertTriesCredentialsInOrder(t *testing.T) {
	input := vaultBlock(t, "a", 0, "first", "right") + vaultBlock(t, "b", 0, "second", "right")

	got, err := convert(t, NewConverter(creds(t, "wrong", "also-wrong", "right"), nil), input)
	assert.NoError(t, err)
	assert.Equal(t, "a: first\nb: second\n", got)
}

func TestConvertIdentityFallback(t *testing.T) {
	wrong, err := credentials.New(credentials.KindIdentity, "wrongId", "wrong-pw")
	assert.NoError(t, err)
	right, err := credentials.New(credentials.KindIdentity, "rightId", "right-pw")
	assert.NoError(t, err)

	got, err := convert(t, NewConverter(credentials.NewList(wrong, right), nil), vaultBlock(t, "k", 0, "v", "right-pw"))
	assert.NoError(t, err)
	assert.Equal(t, "k: v\n", got)
}

func TestConvertWrongPassword(t *testing.T) {
	input := "a: 1\n" + vaultBlock(t, "secret", 0, "v", "right")

	got, err := convert(t, NewConverter(creds(t, "wrong"), nil), input)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
	assert.Contains(t, err.Error(), "line 2")
	assert.NotContains(t, err.Error(), "wrong")
	assert.Equal(t, "", got)
}

func TestConvertStrictIndentation(t *testing.T) {
	input := "k: !vault |\n\t  $ANSIBLE_VAULT;1.1;AES256\n"
	c := &Converter{Decryptor: &fakeDecryptor{}, Credentials: creds(t, "pw"), Strict: true}
	_, err := convert(t, c, input)
	assert.True(t, errors.Is(err, scanner.ErrMixedIndentation))
}

func TestConvertFS(t *testing.T) {
	fsys := fstest.MapFS{"vars.yml": {Data: []byte(vaultBlock(t, "k", 0, "v", "pw"))}}
	c := NewConverter(creds(t, "pw"), nil)

	doc, err := c.ConvertFS(fsys, "vars.yml")
	assert.NoError(t, err)
	assert.Equal(t, "k: v\n", string(doc.Bytes()))

	_, err = c.ConvertFS(fsys, "missing.yml")
	assert.True(t, errors.Is(err, ErrInputUnreadable))
}

func TestDecryptBlockStopsAtFirstMatch(t *testing.T) {
	d := &fakeDecryptor{plaintexts: map[string]string{"b": "from-b", "c": "from-c"}}

	lines, err := DecryptBlock(d, "ignored", creds(t, "a", "b", "c"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"from-b"}, lines)
	assert.Equal(t, []string{"a", "b"}, d.calls)
}

func TestDecryptBlockInvalidUTF8(t *testing.T) {
	d := &fakeDecryptor{plaintexts: map[string]string{"a": "\xff\xfe"}}

	_, err := DecryptBlock(d, "ignored", creds(t, "a", "b"))
	assert.True(t, errors.Is(err, ErrEncodingInvalid))

	d.plaintexts["b"] = "ok"
	lines, err := DecryptBlock(d, "ignored", creds(t, "a", "b"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"ok"}, lines)
}

func TestDecryptBlockNoCredentials(t *testing.T) {
	_, err := DecryptBlock(&fakeDecryptor{}, "ignored", nil)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"\n", []string{""}},
		{"one", []string{"one"}},
		{"one\n", []string{"one"}},
		{"one\r\ntwo\r\n", []string{"one", "two"}},
		{"one\n\ntwo", []string{"one", "", "two"}},
		{"one\n\n", []string{"one", ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitLines(tt.input), tt.input)
	}
}

func TestConvertEncryptStringOutput(t *testing.T) {
	input := `db_user: app
db_password: !vault |
          $ANSIBLE_VAULT;1.1;AES256
          66393166613534363764626364356661656330316438313631326266333233656662323633313034
          3136663232376230633065326439633032346639353638380a643466633465646135313731376339
          35623064333562346632636164336261623039363664653933313665316239363663333534396430
          6165333165313261620a643938333237363865303236633465623366333462646663653932663262
          3839
motd: !vault |
          $ANSIBLE_VAULT;1.1;AES256
          31363336376161636236376134613031376338646138616239353638326363623339303836333738
          3066373131346464613061306530633535363434633763340a316335383435313433643536643432
          36623363336263663433393938636435376135636632333438626136363033343435643339336530
          3633633565386637350a653062343136363835343266353463376162333630326663306637383461
          63383432383635666333393430366561373339366565313064303761383764393437
db_port: 5432
`
	got, err := convert(t, NewConverter(creds(t, "wrong", "vault-pass"), nil), input)
	assert.NoError(t, err)
	assert.Equal(t, "db_user: app\n"+
		"db_password: password123\n"+
		"motd: |\n"+
		"  line one\n"+
		"  line two\n"+
		"db_port: 5432\n", got)
}

func TestConvertKeepsCRLF(t *testing.T) {
	crlf := func(s string) string { return strings.ReplaceAll(s, "\n", "\r\n") }
	input := crlf("app:\n" +
		vaultBlock(t, "password", 2, "hunter2", "pw") +
		vaultBlock(t, "cert", 2, "line one\nline two\n", "pw") +
		vaultBlock(t, "empty", 2, "", "pw") +
		"  port: 8080\n")

	got, err := convert(t, NewConverter(creds(t, "pw"), nil), input)
	assert.NoError(t, err)
	assert.Equal(t, crlf("app:\n"+
		"  password: hunter2\n"+
		"  cert: |\n"+
		"    line one\n"+
		"    line two\n"+
		"  empty: ''\n"+
		"  port: 8080\n"), got)
}
