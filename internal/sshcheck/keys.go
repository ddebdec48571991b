// Package sshcheck verifies that SSH trust has been bootstrapped between
// the administrative host and the fleet: the administrator's public key is
// authorized on every target, and every target's host key is recorded in
// the local trust database.
package sshcheck

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"cluster-preflight/internal/pathutil"
	"cluster-preflight/providers"
)

// publicKeySuffix is appended to the private key path to locate the
// matching public key file.
const publicKeySuffix = ".pub"

// KeyMaterial is the resolved administrator key pair.
type KeyMaterial struct {
	Signer        ssh.Signer
	AuthorizedKey string
	// PrivateKeyPath and PublicKeyPath are empty when the key came from a
	// secret reference rather than the filesystem.
	PrivateKeyPath string
	PublicKeyPath  string
}

// Fingerprint returns the SHA256 fingerprint of the public key.
func (material *KeyMaterial) Fingerprint() string {
	return ssh.FingerprintSHA256(material.Signer.PublicKey())
}

// MissingPublicKeyError reports an absent .pub sibling next to an existing
// private key, so callers can print the ssh-keygen remediation hint.
type MissingPublicKeyError struct {
	Path string
}

func (err *MissingPublicKeyError) Error() string {
	return fmt.Sprintf("Public key file not found: %s", err.Path)
}

// PassphrasePrompt asks the operator for a private key passphrase. A nil
// prompt means no terminal is available.
type PassphrasePrompt func(label string) ([]byte, error)

// ResolveKeyMaterial loads the administrator's key pair. keyInput is either
// a private key file path (the .pub sibling must exist) or a secret
// reference resolved through the provider registry (the public key is then
// derived from the private key itself).
func ResolveKeyMaterial(keyInput string, prompt PassphrasePrompt) (*KeyMaterial, error) {
	trimmedInput := strings.TrimSpace(keyInput)
	if trimmedInput == "" {
		return nil, errors.New("private key is required")
	}

	if providers.IsSecretReference(trimmedInput) {
		return resolveFromSecretReference(trimmedInput, prompt)
	}
	return resolveFromFiles(trimmedInput, prompt)
}

func resolveFromFiles(keyPath string, prompt PassphrasePrompt) (*KeyMaterial, error) {
	privateKeyPath, err := pathutil.ExpandHome(keyPath)
	if err != nil {
		return nil, fmt.Errorf("resolve private key path: %w", err)
	}
	if !pathutil.FileExists(privateKeyPath) {
		return nil, fmt.Errorf("Private key file not found: %s", privateKeyPath)
	}

	// The .pub sibling is checked before the private key is parsed, so a
	// missing public key is reported even when the private key would need a
	// passphrase prompt.
	publicKeyPath := privateKeyPath + publicKeySuffix
	if !pathutil.FileExists(publicKeyPath) {
		return nil, &MissingPublicKeyError{Path: publicKeyPath}
	}

	privateKeyBytes, err := os.ReadFile(privateKeyPath) // #nosec G304 -- key path is explicit user input
	if err != nil {
		return nil, fmt.Errorf("read private key file %s: %w", privateKeyPath, err)
	}
	signer, err := parsePrivateKey(privateKeyBytes, privateKeyPath, prompt)
	if err != nil {
		return nil, err
	}

	publicKeyBytes, err := os.ReadFile(publicKeyPath) // #nosec G304 -- derived from the key path above
	if err != nil {
		return nil, fmt.Errorf("read public key file %s: %w", publicKeyPath, err)
	}
	authorizedKey, err := parseAuthorizedKeyLine(string(publicKeyBytes))
	if err != nil {
		return nil, fmt.Errorf("invalid public key in %s: %w", publicKeyPath, err)
	}

	return &KeyMaterial{
		Signer:         signer,
		AuthorizedKey:  authorizedKey,
		PrivateKeyPath: privateKeyPath,
		PublicKeyPath:  publicKeyPath,
	}, nil
}

func resolveFromSecretReference(secretRef string, prompt PassphrasePrompt) (*KeyMaterial, error) {
	privateKeyText, err := providers.ResolveSecretReference(secretRef, providers.DefaultProviders())
	if err != nil {
		return nil, err
	}

	signer, err := parsePrivateKey([]byte(privateKeyText+"\n"), secretRef, prompt)
	if err != nil {
		return nil, err
	}

	authorizedKey := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey())))
	return &KeyMaterial{
		Signer:        signer,
		AuthorizedKey: authorizedKey,
	}, nil
}

func parsePrivateKey(pemBytes []byte, origin string, prompt PassphrasePrompt) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err == nil {
		return signer, nil
	}

	var passphraseErr *ssh.PassphraseMissingError
	if !errors.As(err, &passphraseErr) {
		return nil, fmt.Errorf("parse private key %s: %w", origin, err)
	}
	if prompt == nil {
		return nil, fmt.Errorf("private key %s is passphrase-protected and no interactive terminal is available", origin)
	}

	passphrase, err := prompt(fmt.Sprintf("Enter passphrase for %s: ", origin))
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, passphrase)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", origin, err)
	}
	return signer, nil
}

// parseAuthorizedKeyLine extracts and validates the single key line from a
// .pub file, skipping blank lines and comments.
func parseAuthorizedKeyLine(rawContent string) (string, error) {
	keyLine := ""
	lineScanner := bufio.NewScanner(strings.NewReader(rawContent))
	for lineScanner.Scan() {
		line := strings.TrimSpace(lineScanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if keyLine != "" {
			return "", errors.New("public key file must contain exactly one key")
		}
		keyLine = line
	}
	if err := lineScanner.Err(); err != nil {
		return "", fmt.Errorf("read key content: %w", err)
	}
	if keyLine == "" {
		return "", errors.New("public key file is empty")
	}

	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(keyLine)); err != nil {
		return "", fmt.Errorf("invalid public key format: %w", err)
	}
	return keyLine, nil
}
