// Package config merges an optional .env file into the SSH trust checker's
// options. Flags explicitly set on the command line always win over file
// values.
package config

// Options groups the trust checker's command-line flags and any values
// merged from a .env file.
type Options struct {
	User       string
	Key        string
	Inventory  string
	Port       int
	TimeoutSec int
	KnownHosts string
	EnvFile    string
}
