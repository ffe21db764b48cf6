package credentials

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// Credential is a resolved vault password. The password is kept sealed in a
// memguard enclave and is only exposed for the duration of Use.
type Credential struct {
	kind   Kind
	label  string
	secret *memguard.Enclave
}

// New seals password into a Credential. password must not be empty.
func New(kind Kind, label, password string) (*Credential, error) {
	if password == "" {
		return nil, ErrEmptyCredential
	}
	return &Credential{
		kind:   kind,
		label:  label,
		secret: memguard.NewEnclave([]byte(password)),
	}, nil
}

// Kind returns the kind of source the credential came from.
func (c *Credential) Kind() Kind { return c.kind }

// Label returns the vault identity label, if any.
func (c *Credential) Label() string { return c.label }

// Use calls fn with the plaintext password. The buffer is wiped when fn
// returns and must not be retained.
func (c *Credential) Use(fn func(password []byte) error) error {
	buf, err := c.secret.Open()
	if err != nil {
		return fmt.Errorf("failed to open vault credential: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// List is the ordered, read-only set of credentials resolved for a run.
type List struct {
	creds []*Credential
}

// NewList returns a List holding creds in order.
func NewList(creds ...*Credential) *List {
	return &List{creds: append([]*Credential(nil), creds...)}
}

// Len returns the number of credentials.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.creds)
}

// All returns the credentials in resolution order.
func (l *List) All() []*Credential {
	if l == nil {
		return nil
	}
	return append([]*Credential(nil), l.creds...)
}

// First returns the highest priority credential.
func (l *List) First() (*Credential, bool) {
	if l.Len() == 0 {
		return nil, false
	}
	return l.creds[0], true
}
