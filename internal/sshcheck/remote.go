package sshcheck

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"cluster-preflight/internal/inventory"
)

// checkAuthorizedKeyScript runs remotely with the public key on stdin and
// exits non-zero when the exact key line is absent. Explicit "\n" escapes
// so source-file CRLF cannot leak into the remote command.
const checkAuthorizedKeyScript = "IFS= read -r KEY\n" +
	"grep -qxF \"$KEY\" ~/.ssh/authorized_keys 2>/dev/null\n"

// RemoteStatus classifies one host's authorized_keys check.
type RemoteStatus int

const (
	// KeyFound means the public key line is present in authorized_keys.
	KeyFound RemoteStatus = iota
	// KeyMissing means the remote check ran but the key line is absent.
	KeyMissing
	// ConnectionFailed means the host could not be checked at all.
	ConnectionFailed
)

// RemoteResult is the authorized_keys outcome for one target host.
type RemoteResult struct {
	Target inventory.Target
	Status RemoteStatus
	Err    error
}

// Config carries the connection parameters for the remote checks.
type Config struct {
	User    string
	Port    int
	Timeout time.Duration
}

// runRemoteCheck is a seam for tests; the real implementation dials SSH.
var runRemoteCheck = runRemoteCheckSSH

// CheckAuthorizedKeys tests every target for the presence of the
// administrator's public key in the login user's authorized_keys. A failing
// host never aborts the batch; every target is attempted.
func CheckAuthorizedKeys(targets []inventory.Target, material *KeyMaterial, checkConfig Config) []RemoteResult {
	// Host keys are deliberately not verified here: trust recording is
	// checked independently against the local known_hosts database.
	clientConfig := &ssh.ClientConfig{
		User:            checkConfig.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(material.Signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106 -- trust is verified by the known_hosts check
		Timeout:         checkConfig.Timeout,
	}

	results := make([]RemoteResult, 0, len(targets))
	for _, target := range targets {
		address := net.JoinHostPort(target.Addr, strconv.Itoa(checkConfig.Port))
		status, err := runRemoteCheck(address, clientConfig, material.AuthorizedKey)
		results = append(results, RemoteResult{Target: target, Status: status, Err: err})
	}
	return results
}

func runRemoteCheckSSH(address string, clientConfig *ssh.ClientConfig, authorizedKey string) (RemoteStatus, error) {
	client, err := ssh.Dial("tcp", address, clientConfig)
	if err != nil {
		return ConnectionFailed, fmt.Errorf("ssh dial: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return ConnectionFailed, fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	session.Stdin = strings.NewReader(authorizedKey + "\n")
	if err := session.Run(checkAuthorizedKeyScript); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return KeyMissing, nil
		}
		return ConnectionFailed, fmt.Errorf("remote check: %w", err)
	}
	return KeyFound, nil
}
