// Package dotenv loads vault settings from a dotenv file.
package dotenv

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// validIdentifierPattern matches valid environment variable identifiers
var validIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Read parses the dotenv file at path. Keys that are not valid environment
// variable identifiers are rejected.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	envs, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %q: %w", path, err)
	}
	for key := range envs {
		if !validIdentifierPattern.MatchString(key) {
			return nil, fmt.Errorf("invalid identifier %q in env file %q", key, path)
		}
	}
	return envs, nil
}

// Overlay returns base with entries from file added where base has no value
// for the key. Neither input is modified.
func Overlay(base, file map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(file))
	for k, v := range file {
		out[k] = v
	}
	for k, v := range base {
		out[k] = v
	}
	return out
}
