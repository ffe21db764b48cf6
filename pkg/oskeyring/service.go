// Package oskeyring stores vault passwords in the operating system keyring.
package oskeyring

import (
	"errors"
	"fmt"
	"sync"

	keyringlib "github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name vault passwords are filed under.
const DefaultService = "ansible-vault"

// ErrNotFound is returned by Get when no password is stored for the user.
var ErrNotFound = errors.New("vault password not found in keyring")

// Service reads and writes vault passwords keyed by (service, user).
type Service interface {
	// Get returns ErrNotFound when nothing is stored.
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	// Delete does not fail when nothing is stored.
	Delete(service, user string) error
}

// System is the Service backed by the OS keyring (Keychain, Secret Service, wincred).
type System struct{}

// NewSystem returns the OS keyring service.
func NewSystem() *System {
	return &System{}
}

func (s *System) Get(service, user string) (string, error) {
	secret, err := keyringlib.Get(service, user)
	if err != nil {
		if errors.Is(err, keyringlib.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read vault password from OS keyring: %w", err)
	}
	return secret, nil
}

func (s *System) Set(service, user, password string) error {
	if err := keyringlib.Set(service, user, password); err != nil {
		return fmt.Errorf("failed to store vault password in OS keyring: %w", err)
	}
	return nil
}

func (s *System) Delete(service, user string) error {
	err := keyringlib.Delete(service, user)
	if err != nil && !errors.Is(err, keyringlib.ErrNotFound) {
		return fmt.Errorf("failed to delete vault password from OS keyring: %w", err)
	}
	return nil
}

var _ Service = (*System)(nil)

// Memory is an in-process Service for tests.
type Memory struct {
	mu    sync.RWMutex
	store map[string]map[string]string
}

// NewMemory returns an empty in-memory keyring.
func NewMemory() *Memory {
	return &Memory{store: make(map[string]map[string]string)}
}

func (m *Memory) Get(service, user string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if secret, ok := m.store[service][user]; ok {
		return secret, nil
	}
	return "", ErrNotFound
}

func (m *Memory) Set(service, user, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store[service]; !ok {
		m.store[service] = make(map[string]string)
	}
	m.store[service][user] = password
	return nil
}

func (m *Memory) Delete(service, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if users, ok := m.store[service]; ok {
		delete(users, user)
		if len(users) == 0 {
			delete(m.store, service)
		}
	}
	return nil
}

var _ Service = (*Memory)(nil)
