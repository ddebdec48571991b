package sshcheck

import "strings"

// FailedRemote filters the authorized_keys results down to failures,
// preserving order.
func FailedRemote(results []RemoteResult) []RemoteResult {
	var failed []RemoteResult
	for _, result := range results {
		if result.Status != KeyFound {
			failed = append(failed, result)
		}
	}
	return failed
}

// MissingTrust filters the known_hosts results down to absent entries,
// preserving order.
func MissingTrust(results []TrustResult) []TrustResult {
	var missing []TrustResult
	for _, result := range results {
		if !result.Present {
			missing = append(missing, result)
		}
	}
	return missing
}

// FailureMessage renders one remote failure for per-host diagnostics.
func FailureMessage(result RemoteResult) string {
	switch result.Status {
	case KeyMissing:
		return "Public key not found in authorized_keys"
	case ConnectionFailed:
		if result.Err != nil {
			return "SSH connection failed: " + result.Err.Error()
		}
		return "SSH connection failed"
	}
	return ""
}

// CopyIDCommand suggests the per-host remediation for a missing authorized
// key. Without a public key file on disk the operator has to paste the key
// content manually, so no command is suggested.
func CopyIDCommand(material *KeyMaterial, user, address string) string {
	if material.PublicKeyPath == "" {
		return ""
	}
	return "ssh-copy-id -i " + material.PublicKeyPath + " " + user + "@" + address
}

// KeyscanCommand suggests one batched ssh-keyscan invocation covering every
// host missing a trust entry.
func KeyscanCommand(missing []TrustResult, knownHostsPath string) string {
	if len(missing) == 0 {
		return ""
	}
	addresses := make([]string, 0, len(missing))
	for _, result := range missing {
		addresses = append(addresses, result.Target.Addr)
	}
	return "ssh-keyscan -H " + strings.Join(addresses, " ") + " >> " + knownHostsPath
}
