package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"cluster-preflight/internal/cli"
	"cluster-preflight/internal/config"
	"cluster-preflight/internal/inventory"
	"cluster-preflight/internal/sshcheck"
)

const targetsInventoryYAML = `all:
  children:
    masters:
      hosts:
        master1:
          ansible_host: 10.10.0.11
    workers:
      hosts:
        worker1:
          ansible_host: 10.10.0.21
`

// writeKeyPair writes an ed25519 private key and its .pub sibling into dir
// and returns the private key path.
func writeKeyPair(t *testing.T, dir string) string {
	t.Helper()

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemBlock, err := ssh.MarshalPrivateKey(privateKey, "")
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}

	privateKeyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(privateKeyPath, pem.EncodeToMemory(pemBlock), 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}

	sshPublicKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		t.Fatalf("wrap public key: %v", err)
	}
	if err := os.WriteFile(privateKeyPath+".pub", ssh.MarshalAuthorizedKey(sshPublicKey), 0o600); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return privateKeyPath
}

func writeInventory(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventory.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return path
}

// stubChecks replaces both check seams for one test. The authorized_keys
// stub counts its invocations; results are keyed by host name.
func stubChecks(t *testing.T, remoteByHost map[string]sshcheck.RemoteResult, trustByHost map[string]bool) *int {
	t.Helper()

	remoteCalls := 0
	originalCheckAuthorizedKeys := checkAuthorizedKeys
	originalCheckKnownHosts := checkKnownHosts

	checkAuthorizedKeys = func(targets []inventory.Target, material *sshcheck.KeyMaterial, checkConfig sshcheck.Config) []sshcheck.RemoteResult {
		remoteCalls++
		results := make([]sshcheck.RemoteResult, 0, len(targets))
		for _, target := range targets {
			result := remoteByHost[target.Name]
			result.Target = target
			results = append(results, result)
		}
		return results
	}
	checkKnownHosts = func(targets []inventory.Target, knownHostsPath string, port int) ([]sshcheck.TrustResult, error) {
		results := make([]sshcheck.TrustResult, 0, len(targets))
		for _, target := range targets {
			results = append(results, sshcheck.TrustResult{Target: target, Present: trustByHost[target.Name]})
		}
		return results, nil
	}
	t.Cleanup(func() {
		checkAuthorizedKeys = originalCheckAuthorizedKeys
		checkKnownHosts = originalCheckKnownHosts
	})
	return &remoteCalls
}

func statusCode(t *testing.T, err error) int {
	t.Helper()

	var statusErr *cli.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, got %v", err)
	}
	return statusErr.Code
}

// TestVerifyTrustComplete asserts the all-pass path exits zero with the
// COMPLETE verdict.
func TestVerifyTrustComplete(t *testing.T) {
	stubChecks(t,
		map[string]sshcheck.RemoteResult{
			"master1": {Status: sshcheck.KeyFound},
			"worker1": {Status: sshcheck.KeyFound},
		},
		map[string]bool{"master1": true, "worker1": true})

	programOptions := &config.Options{
		User:       "ubuntu",
		Key:        writeKeyPair(t, t.TempDir()),
		Inventory:  writeInventory(t, targetsInventoryYAML),
		Port:       22,
		TimeoutSec: 5,
		KnownHosts: "~/.ssh/known_hosts",
	}

	var output strings.Builder
	if err := verifyTrust(programOptions, &output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output.String(), "[OK] SSH configuration is COMPLETE") {
		t.Fatalf("missing COMPLETE verdict:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "public key authorized on all 2 target hosts") {
		t.Fatalf("missing summary line:\n%s", output.String())
	}
}

// TestVerifyTrustMixedResults asserts one failing host yields exit code 1,
// the INCOMPLETE verdict, and remediation naming exactly that host.
func TestVerifyTrustMixedResults(t *testing.T) {
	stubChecks(t,
		map[string]sshcheck.RemoteResult{
			"master1": {Status: sshcheck.KeyFound},
			"worker1": {Status: sshcheck.KeyMissing},
		},
		map[string]bool{"master1": true, "worker1": true})

	keyPath := writeKeyPair(t, t.TempDir())
	programOptions := &config.Options{
		User:       "ubuntu",
		Key:        keyPath,
		Inventory:  writeInventory(t, targetsInventoryYAML),
		Port:       22,
		TimeoutSec: 5,
		KnownHosts: "~/.ssh/known_hosts",
	}

	var output strings.Builder
	err := verifyTrust(programOptions, &output)
	if code := statusCode(t, err); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	if !strings.Contains(output.String(), "[FAIL] SSH configuration is INCOMPLETE") {
		t.Fatalf("missing INCOMPLETE verdict:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "Public key issue on 1 host(s):") {
		t.Fatalf("missing remediation section:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "- worker1 (10.10.0.21): Public key not found in authorized_keys") {
		t.Fatalf("failing host not listed:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "ssh-copy-id -i "+keyPath+".pub ubuntu@10.10.0.21") {
		t.Fatalf("missing ssh-copy-id remediation:\n%s", output.String())
	}
	if strings.Contains(output.String(), "- master1 (10.10.0.11): Public key") {
		t.Fatalf("passing host listed under remediation:\n%s", output.String())
	}
}

// TestVerifyTrustMissingPublicKey asserts a private key without its .pub
// sibling prints the ssh-keygen hint and exits 1 before any remote attempt.
func TestVerifyTrustMissingPublicKey(t *testing.T) {
	remoteCalls := stubChecks(t, nil, nil)

	keyPath := writeKeyPair(t, t.TempDir())
	if err := os.Remove(keyPath + ".pub"); err != nil {
		t.Fatalf("remove public key: %v", err)
	}

	programOptions := &config.Options{
		User:       "ubuntu",
		Key:        keyPath,
		Inventory:  writeInventory(t, targetsInventoryYAML),
		Port:       22,
		TimeoutSec: 5,
		KnownHosts: "~/.ssh/known_hosts",
	}

	var output strings.Builder
	err := verifyTrust(programOptions, &output)
	if code := statusCode(t, err); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	if !strings.Contains(output.String(), "Public key file not found: "+keyPath+".pub") {
		t.Fatalf("missing diagnostic:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "ssh-keygen -y -f <private_key> > <private_key>.pub") {
		t.Fatalf("missing ssh-keygen hint:\n%s", output.String())
	}
	if *remoteCalls != 0 {
		t.Fatalf("remote check must not run without key material, got %d calls", *remoteCalls)
	}
}

// TestVerifyTrustRequiredFlags asserts missing -user and -key are usage
// errors.
func TestVerifyTrustRequiredFlags(t *testing.T) {
	var output strings.Builder

	err := verifyTrust(&config.Options{Key: "~/.ssh/id_ed25519"}, &output)
	if code := statusCode(t, err); code != 2 {
		t.Fatalf("expected exit code 2 for missing user, got %d", code)
	}

	err = verifyTrust(&config.Options{User: "ubuntu"}, &output)
	if code := statusCode(t, err); code != 2 {
		t.Fatalf("expected exit code 2 for missing key, got %d", code)
	}
}
