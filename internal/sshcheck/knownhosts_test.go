package sshcheck

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"cluster-preflight/internal/inventory"
)

// newHostKey generates a host public key for known_hosts fixtures.
func newHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	hostKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		t.Fatalf("wrap host key: %v", err)
	}
	return hostKey
}

// TestCheckKnownHosts asserts plaintext and hashed entries both count as
// recorded and unknown hosts come back absent.
func TestCheckKnownHosts(t *testing.T) {
	t.Parallel()

	hostKey := newHostKey(t)
	plainLine := knownhosts.Line([]string{knownhosts.Normalize("10.0.0.1")}, hostKey)
	hashedLine := knownhosts.HashHostname(knownhosts.Normalize("10.0.0.2")) + " " +
		strings.TrimSpace(string(ssh.MarshalAuthorizedKey(hostKey)))
	revokedLine := "@revoked " + knownhosts.Normalize("10.0.0.4") + " " +
		strings.TrimSpace(string(ssh.MarshalAuthorizedKey(hostKey)))

	knownHostsPath := filepath.Join(t.TempDir(), "known_hosts")
	content := plainLine + "\n" + hashedLine + "\n" + revokedLine + "\n"
	if err := os.WriteFile(knownHostsPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}

	targets := []inventory.Target{
		{Name: "master1", Addr: "10.0.0.1", Role: "master"},
		{Name: "worker1", Addr: "10.0.0.2", Role: "worker"},
		{Name: "worker2", Addr: "10.0.0.3", Role: "worker"},
		{Name: "worker3", Addr: "10.0.0.4", Role: "worker"},
	}

	results, err := CheckKnownHosts(targets, knownHostsPath, 22)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four results, got %d", len(results))
	}
	if !results[0].Present {
		t.Fatalf("plaintext entry for %s not matched", targets[0].Addr)
	}
	if !results[1].Present {
		t.Fatalf("hashed entry for %s not matched", targets[1].Addr)
	}
	if results[2].Present {
		t.Fatalf("unknown host %s reported present", targets[2].Addr)
	}
	if results[3].Present {
		t.Fatalf("revoked-only host %s must need re-recording", targets[3].Addr)
	}
}

// TestCheckKnownHostsMissingFile asserts a missing trust database is not
// fatal: every host is simply reported absent.
func TestCheckKnownHostsMissingFile(t *testing.T) {
	t.Parallel()

	targets := []inventory.Target{
		{Name: "master1", Addr: "10.0.0.1", Role: "master"},
		{Name: "worker1", Addr: "10.0.0.2", Role: "worker"},
	}

	results, err := CheckKnownHosts(targets, filepath.Join(t.TempDir(), "known_hosts"), 22)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, result := range results {
		if result.Present {
			t.Fatalf("host %s reported present without a trust database", result.Target.Addr)
		}
	}
}
