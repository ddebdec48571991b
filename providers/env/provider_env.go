// Package env resolves env://VAR_NAME secret references against the process
// environment.
package env

import (
	"fmt"
	"os"
	"strings"

	"cluster-preflight/providers"
)

const refPrefix = "env://"

type provider struct{}

var getEnv = os.Getenv

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "env"
}

func (provider) Supports(secretRef string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(secretRef)), refPrefix)
}

func (provider) Resolve(secretRef string) (string, error) {
	variableName := strings.TrimSpace(strings.TrimSpace(secretRef)[len(refPrefix):])
	if variableName == "" {
		return "", fmt.Errorf("env secret ref is missing a variable name")
	}

	value := getEnv(variableName)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("environment variable %s is empty or unset", variableName)
	}
	return value, nil
}
