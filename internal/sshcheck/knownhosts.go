package sshcheck

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"cluster-preflight/internal/inventory"
	"cluster-preflight/internal/pathutil"
)

// TrustResult is the known_hosts outcome for one target host.
type TrustResult struct {
	Target  inventory.Target
	Present bool
}

// CheckKnownHosts reports, per target, whether the trust database records a
// host key for the target's address. The knownhosts machinery matches both
// plaintext and hashed entries. A missing database file is not fatal: every
// host is simply reported absent.
func CheckKnownHosts(targets []inventory.Target, knownHostsPath string, port int) ([]TrustResult, error) {
	resolvedPath, err := pathutil.ExpandHome(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("resolve known_hosts path: %w", err)
	}

	results := make([]TrustResult, 0, len(targets))
	if !pathutil.FileExists(resolvedPath) {
		for _, target := range targets {
			results = append(results, TrustResult{Target: target})
		}
		return results, nil
	}

	callback, err := knownhosts.New(resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", resolvedPath, err)
	}

	probeKey, err := generateProbeKey()
	if err != nil {
		return nil, err
	}

	for _, target := range targets {
		results = append(results, TrustResult{
			Target:  target,
			Present: hostRecorded(callback, target.Addr, port, probeKey),
		})
	}
	return results, nil
}

// generateProbeKey builds a throwaway public key for presence probes.
func generateProbeKey() (ssh.PublicKey, error) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate probe key: %w", err)
	}
	probeKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("wrap probe key: %w", err)
	}
	return probeKey, nil
}

// hostRecorded probes the trust database by presenting a freshly generated
// key for the address. A KeyError listing wanted keys means the address has
// recorded entries; an empty one means it is unknown. Revocation markers do
// not count: a host whose keys are all revoked needs re-recording anyway.
func hostRecorded(callback ssh.HostKeyCallback, address string, port int, probeKey ssh.PublicKey) bool {
	hostPort := net.JoinHostPort(address, strconv.Itoa(port))
	remote := &net.TCPAddr{IP: net.ParseIP(address), Port: port}

	err := callback(hostPort, remote, probeKey)
	if err == nil {
		return true
	}

	var keyErr *knownhosts.KeyError
	return errors.As(err, &keyErr) && len(keyErr.Want) > 0
}
