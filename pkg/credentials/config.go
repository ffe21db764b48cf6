package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Environment variables consulted when resolving vault passwords.
const (
	PasswordEnv       = "ANSIBLE_VAULT_PASSWORD"
	PasswordFileEnv   = "ANSIBLE_VAULT_PASSWORD_FILE"
	IdentityListEnv   = "ANSIBLE_VAULT_IDENTITY_LIST"
	KeyringUserEnv    = "UNVAULT_KEYRING_USER"
	KeyringServiceEnv = "UNVAULT_KEYRING_SERVICE"

	// DefaultPasswordFile is looked up in $HOME when no password file is configured.
	DefaultPasswordFile = ".vault_pass"
)

// Config is the vault password configuration taken from the environment.
type Config struct {
	Password       string   `env:"ANSIBLE_VAULT_PASSWORD"`
	PasswordFile   string   `env:"ANSIBLE_VAULT_PASSWORD_FILE"`
	IdentityList   []string `env:"ANSIBLE_VAULT_IDENTITY_LIST" envSeparator:","`
	Home           string   `env:"HOME"`
	KeyringUser    string   `env:"UNVAULT_KEYRING_USER"`
	KeyringService string   `env:"UNVAULT_KEYRING_SERVICE" envDefault:"ansible-vault"`
}

// LoadConfig decodes a Config from environ, a map of environment variables.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("error getting vault environment: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromEnv decodes a Config from the process environment.
func LoadConfigFromEnv() (Config, error) {
	return LoadConfig(env.ToMap(os.Environ()))
}

// DefaultPasswordPath returns $HOME/.vault_pass, or "" when HOME is unset.
func (c Config) DefaultPasswordPath() string {
	if c.Home == "" {
		return ""
	}
	return filepath.Join(c.Home, DefaultPasswordFile)
}
