package infisical

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type secretRefSpec struct {
	secretName  string
	projectID   string
	environment string
}

// parseSecretRef accepts infisical://SECRET_NAME with optional
// ?projectId=...&env=... query overrides.
func parseSecretRef(secretRef string) (secretRefSpec, error) {
	trimmedRef := strings.TrimSpace(secretRef)
	if !strings.HasPrefix(strings.ToLower(trimmedRef), "infisical://") {
		return secretRefSpec{}, fmt.Errorf("invalid infisical secret ref %q", secretRef)
	}
	body := trimmedRef[len("infisical://"):]

	secretNamePart := body
	queryString := ""
	if separatorIndex := strings.Index(body, "?"); separatorIndex >= 0 {
		secretNamePart = body[:separatorIndex]
		queryString = body[separatorIndex+1:]
	}

	secretName := strings.Trim(strings.TrimSpace(secretNamePart), "/")
	if secretName == "" {
		return secretRefSpec{}, errors.New("infisical secret ref is missing secret identifier")
	}

	queryValues, err := url.ParseQuery(queryString)
	if err != nil {
		return secretRefSpec{}, fmt.Errorf("invalid infisical secret ref query: %w", err)
	}

	return secretRefSpec{
		secretName: secretName,
		projectID: firstNonEmpty(
			strings.TrimSpace(queryValues.Get("projectId")),
			strings.TrimSpace(queryValues.Get("workspaceId")),
		),
		environment: firstNonEmpty(
			strings.TrimSpace(queryValues.Get("environment")),
			strings.TrimSpace(queryValues.Get("env")),
		),
	}, nil
}
