// check-ssh verifies that SSH trust has been bootstrapped for the
// provisioning automation: the administrator's public key is authorized on
// every master and worker node, and every node's host key is recorded in
// the local known_hosts database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cluster-preflight/internal/cli"
	"cluster-preflight/internal/config"
	"cluster-preflight/internal/inventory"
	"cluster-preflight/internal/sshcheck"
	"cluster-preflight/internal/termio"

	// Secret providers register themselves for -key secret references.
	_ "cluster-preflight/providers/env"
	_ "cluster-preflight/providers/infisical"
)

const (
	defaultInventoryPath  = "inventory.yml"
	defaultSSHPort        = 22
	defaultTimeoutSeconds = 5
	defaultKnownHostsPath = "~/.ssh/known_hosts"
)

// Seams for tests; the real implementations reach the network and the
// filesystem.
var (
	checkAuthorizedKeys = sshcheck.CheckAuthorizedKeys
	checkKnownHosts     = sshcheck.CheckKnownHosts
)

func main() {
	cli.Exit(run())
}

func parseFlags() *config.Options {
	programOptions := &config.Options{}

	flag.StringVar(&programOptions.User, "user", "", "SSH username to use for connections")
	flag.StringVar(&programOptions.Key, "key", "", "Private key path or secret reference (env://..., infisical://...)")
	flag.StringVar(&programOptions.Inventory, "inventory", defaultInventoryPath, "Path to inventory file")
	flag.IntVar(&programOptions.Port, "port", defaultSSHPort, "SSH port on the target hosts")
	flag.IntVar(&programOptions.TimeoutSec, "timeout", defaultTimeoutSeconds, "Per-host connection timeout in seconds")
	flag.StringVar(&programOptions.KnownHosts, "known-hosts", defaultKnownHostsPath, "Path to the known_hosts file to check")
	flag.StringVar(&programOptions.EnvFile, "env-file", "", "Path to .env config file")

	flag.Parse()
	return programOptions
}

func collectProvidedFlagNames() map[string]bool {
	providedFlagNames := map[string]bool{}
	flag.Visit(func(currentFlag *flag.Flag) {
		providedFlagNames[currentFlag.Name] = true
	})
	return providedFlagNames
}

func run() error {
	programOptions := parseFlags()

	if err := config.ApplyFiles(programOptions, collectProvidedFlagNames()); err != nil {
		return cli.Failf(2, "%w", err)
	}
	return verifyTrust(programOptions, os.Stdout)
}

func verifyTrust(programOptions *config.Options, out io.Writer) error {
	if strings.TrimSpace(programOptions.User) == "" {
		return cli.Failf(2, "-user is required")
	}
	if strings.TrimSpace(programOptions.Key) == "" {
		return cli.Failf(2, "-key is required")
	}

	material, err := resolveKeyMaterial(programOptions.Key, out)
	if err != nil {
		var missingPublicKey *sshcheck.MissingPublicKeyError
		if errors.As(err, &missingPublicKey) {
			fmt.Fprintf(out, "ERROR: %s\n", missingPublicKey)
			fmt.Fprintln(out, "      Generate it with: ssh-keygen -y -f <private_key> > <private_key>.pub")
			return &cli.StatusError{Code: 1}
		}
		return cli.Failf(1, "%w", err)
	}
	fmt.Fprintf(out, "Public key fingerprint: %s\n", material.Fingerprint())

	fmt.Fprintf(out, "\nLoading inventory from %s...\n", programOptions.Inventory)
	document, err := inventory.Load(programOptions.Inventory)
	if err != nil {
		return cli.Failf(1, "%w", err)
	}

	targets := inventory.TargetHosts(document)
	if len(targets) == 0 {
		return cli.Failf(1, "no master or worker nodes found in inventory")
	}
	fmt.Fprintf(out, "Found %d target hosts:\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  - %s (%s): %s\n", target.Name, target.Role, target.Addr)
	}

	printSection(out, "CHECK 1: Public key in authorized_keys on target hosts")
	remoteResults := checkAuthorizedKeys(targets, material, sshcheck.Config{
		User:    programOptions.User,
		Port:    programOptions.Port,
		Timeout: time.Duration(programOptions.TimeoutSec) * time.Second,
	})
	for _, result := range remoteResults {
		if result.Status == sshcheck.KeyFound {
			fmt.Fprintf(out, "[OK]   %s (%s): public key present in authorized_keys\n", result.Target.Name, result.Target.Addr)
			continue
		}
		fmt.Fprintf(out, "[FAIL] %s (%s): %s\n", result.Target.Name, result.Target.Addr, sshcheck.FailureMessage(result))
	}

	printSection(out, "CHECK 2: Host keys in known_hosts")
	fmt.Fprintf(out, "Checking known_hosts file: %s\n", programOptions.KnownHosts)
	trustResults, err := checkKnownHosts(targets, programOptions.KnownHosts, programOptions.Port)
	if err != nil {
		return cli.Failf(1, "%w", err)
	}
	for _, result := range trustResults {
		if result.Present {
			fmt.Fprintf(out, "[OK]   %s (%s): host key recorded in known_hosts\n", result.Target.Name, result.Target.Addr)
			continue
		}
		fmt.Fprintf(out, "[FAIL] %s (%s): host key not found in known_hosts\n", result.Target.Name, result.Target.Addr)
	}

	failedRemote := sshcheck.FailedRemote(remoteResults)
	missingTrust := sshcheck.MissingTrust(trustResults)

	printSection(out, "VERIFICATION RESULT")
	if len(failedRemote) == 0 && len(missingTrust) == 0 {
		fmt.Fprintln(out, "[OK] SSH configuration is COMPLETE")
		fmt.Fprintf(out, "  - public key authorized on all %d target hosts\n", len(targets))
		fmt.Fprintf(out, "  - all %d host keys recorded in known_hosts\n", len(targets))
		return nil
	}

	fmt.Fprintln(out, "[FAIL] SSH configuration is INCOMPLETE")
	printRemediation(out, material, programOptions, failedRemote, missingTrust)
	return &cli.StatusError{Code: 1}
}

// resolveKeyMaterial wires the passphrase prompt in only when stdin is an
// interactive terminal.
func resolveKeyMaterial(keyInput string, out io.Writer) (*sshcheck.KeyMaterial, error) {
	var prompt sshcheck.PassphrasePrompt
	if termio.IsTerminal(os.Stdin) {
		prompt = termio.ReadPassword
	}

	material, err := sshcheck.ResolveKeyMaterial(keyInput, prompt)
	if err != nil {
		return nil, err
	}
	if material.PublicKeyPath != "" {
		fmt.Fprintf(out, "Extracted public key from %s\n", material.PublicKeyPath)
	}
	return material, nil
}

func printSection(out io.Writer, title string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("=", 70))
}

func printRemediation(out io.Writer, material *sshcheck.KeyMaterial, programOptions *config.Options, failedRemote []sshcheck.RemoteResult, missingTrust []sshcheck.TrustResult) {
	if len(failedRemote) > 0 {
		fmt.Fprintf(out, "\n  Public key issue on %d host(s):\n", len(failedRemote))
		for _, result := range failedRemote {
			fmt.Fprintf(out, "    - %s (%s): %s\n", result.Target.Name, result.Target.Addr, sshcheck.FailureMessage(result))
		}
		fmt.Fprintln(out, "\n  To fix, run for each failed host:")
		for _, result := range failedRemote {
			if command := sshcheck.CopyIDCommand(material, programOptions.User, result.Target.Addr); command != "" {
				fmt.Fprintf(out, "    %s\n", command)
			} else {
				fmt.Fprintf(out, "    (append the public key below to ~/.ssh/authorized_keys for %s on %s)\n", programOptions.User, result.Target.Addr)
			}
		}
		fmt.Fprintln(out, "  Public key content:")
		fmt.Fprintf(out, "    %s\n", material.AuthorizedKey)
	}

	if len(missingTrust) > 0 {
		fmt.Fprintf(out, "\n  Host keys missing in known_hosts for %d host(s):\n", len(missingTrust))
		for _, result := range missingTrust {
			fmt.Fprintf(out, "    - %s (%s)\n", result.Target.Name, result.Target.Addr)
		}
		fmt.Fprintln(out, "\n  To fix, run:")
		fmt.Fprintf(out, "    %s\n", sshcheck.KeyscanCommand(missingTrust, programOptions.KnownHosts))
	}
}
