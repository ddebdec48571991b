package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cluster-preflight/internal/pathutil"
)

const defaultBinaryDotEnvFilename = ".env"

// ApplyFiles merges values from a .env file into any option not explicitly
// set on the command line. An explicit -env-file is loaded unconditionally;
// otherwise a .env next to the binary is picked up when present. Absence of
// both is not an error.
func ApplyFiles(programOptions *Options, providedFlagNames map[string]bool) error {
	if programOptions == nil {
		return errors.New("program options are required")
	}

	dotEnvPath := strings.TrimSpace(programOptions.EnvFile)
	if dotEnvPath == "" {
		discoveredPath, err := discoverConfigFileNearBinary()
		if err != nil {
			return err
		}
		if discoveredPath == "" {
			return nil
		}
		dotEnvPath = discoveredPath
	}

	programOptions.EnvFile = dotEnvPath
	return applyDotEnv(programOptions, providedFlagNames)
}

func discoverConfigFileNearBinary() (string, error) {
	executablePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	dotEnvPath := filepath.Join(filepath.Dir(executablePath), defaultBinaryDotEnvFilename)
	if !pathutil.FileExists(dotEnvPath) {
		return "", nil
	}
	return dotEnvPath, nil
}

// applyDotEnv reads programOptions.EnvFile and fills every option whose
// matching flag was not provided on the command line.
func applyDotEnv(programOptions *Options, providedFlagNames map[string]bool) error {
	envFilePath, err := pathutil.ExpandHome(strings.TrimSpace(programOptions.EnvFile))
	if err != nil {
		return fmt.Errorf("resolve .env path: %w", err)
	}
	envBytes, err := os.ReadFile(envFilePath) // #nosec G304 -- dotenv path is explicit user input
	if err != nil {
		return fmt.Errorf("read .env file: %w", err)
	}

	parsedEnvValues, err := parseDotEnvContent(string(envBytes))
	if err != nil {
		return fmt.Errorf("parse .env file: %w", err)
	}

	setStringOption := func(envKey, flagName string, setter func(string)) {
		if providedFlagNames[flagName] {
			return
		}
		if value, ok := parsedEnvValues[envKey]; ok {
			setter(strings.TrimSpace(value))
		}
	}
	setIntOption := func(envKey, flagName string, setter func(int)) error {
		if providedFlagNames[flagName] {
			return nil
		}
		value, ok := parsedEnvValues[envKey]
		if !ok {
			return nil
		}
		number, conversionErr := strconv.Atoi(strings.TrimSpace(value))
		if conversionErr != nil {
			return fmt.Errorf(".env key %s must be an integer: %w", envKey, conversionErr)
		}
		setter(number)
		return nil
	}

	setStringOption("USER", "user", func(v string) { programOptions.User = v })
	setStringOption("KEY", "key", func(v string) { programOptions.Key = v })
	setStringOption("INVENTORY", "inventory", func(v string) { programOptions.Inventory = v })
	setStringOption("KNOWN_HOSTS", "known-hosts", func(v string) { programOptions.KnownHosts = v })

	if err := setIntOption("PORT", "port", func(v int) { programOptions.Port = v }); err != nil {
		return err
	}
	if err := setIntOption("TIMEOUT", "timeout", func(v int) { programOptions.TimeoutSec = v }); err != nil {
		return err
	}

	return nil
}
