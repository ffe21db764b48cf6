// Package main provides the unvault CLI tool for decrypting Ansible Vault values in YAML files.
package main

import "github.com/mscno/unvault/cmd/unvault/commands"

func main() {
	commands.Execute(Version)
}
