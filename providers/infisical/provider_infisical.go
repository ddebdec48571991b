// Package infisical resolves infisical://SECRET_NAME secret references
// through the Infisical SDK using universal-auth machine credentials taken
// from the environment.
package infisical

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	infisicalsdk "github.com/infisical/go-sdk"

	"cluster-preflight/providers"
)

const defaultInfisicalSiteURL = "https://app.infisical.com"

type runtimeConfig struct {
	siteURL      string
	projectID    string
	environment  string
	clientID     string
	clientSecret string
}

// sdkClient narrows the Infisical SDK surface this provider needs, so tests
// can substitute a fake.
type sdkClient interface {
	LoginUniversalAuth(clientID, clientSecret string) error
	RetrieveSecret(secretKey, projectID, environment string) (string, error)
}

type sdkAdapter struct {
	client infisicalsdk.InfisicalClientInterface
}

func (adapter *sdkAdapter) LoginUniversalAuth(clientID, clientSecret string) error {
	_, err := adapter.client.Auth().UniversalAuthLogin(clientID, clientSecret)
	return err
}

func (adapter *sdkAdapter) RetrieveSecret(secretKey, projectID, environment string) (string, error) {
	secret, err := adapter.client.Secrets().Retrieve(infisicalsdk.RetrieveSecretOptions{
		SecretKey:   secretKey,
		ProjectID:   projectID,
		Environment: environment,
	})
	if err != nil {
		return "", err
	}
	return secret.SecretValue, nil
}

type provider struct{}

var (
	getEnv = os.Getenv

	newSDKClient = func(siteURL string) sdkClient {
		return &sdkAdapter{
			client: infisicalsdk.NewInfisicalClient(context.Background(), infisicalsdk.Config{SiteUrl: siteURL}),
		}
	}

	cacheMu     sync.RWMutex
	secretCache = map[string]string{}
)

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "infisical"
}

func (provider) Supports(secretRef string) bool {
	_, err := parseSecretRef(secretRef)
	return err == nil
}

func (provider) Resolve(secretRef string) (string, error) {
	secretSpec, err := parseSecretRef(secretRef)
	if err != nil {
		return "", err
	}

	resolvedConfig, err := loadRuntimeConfig(secretSpec)
	if err != nil {
		return "", err
	}

	cacheKey := strings.Join([]string{resolvedConfig.siteURL, resolvedConfig.projectID, resolvedConfig.environment, secretSpec.secretName}, "|")
	if cachedValue, ok := getCachedSecret(cacheKey); ok {
		return cachedValue, nil
	}

	client := newSDKClient(resolvedConfig.siteURL)
	if err := client.LoginUniversalAuth(resolvedConfig.clientID, resolvedConfig.clientSecret); err != nil {
		return "", fmt.Errorf("infisical login: %w", err)
	}

	secretValue, err := client.RetrieveSecret(secretSpec.secretName, resolvedConfig.projectID, resolvedConfig.environment)
	if err != nil {
		return "", fmt.Errorf("retrieve secret %s: %w", secretSpec.secretName, err)
	}

	storeCachedSecret(cacheKey, secretValue)
	return secretValue, nil
}

func loadRuntimeConfig(secretSpec secretRefSpec) (runtimeConfig, error) {
	resolvedConfig := runtimeConfig{
		siteURL: firstNonEmpty(
			strings.TrimSpace(getEnv("INFISICAL_SITE_URL")),
			defaultInfisicalSiteURL,
		),
		clientID:     strings.TrimSpace(getEnv("INFISICAL_UNIVERSAL_AUTH_CLIENT_ID")),
		clientSecret: strings.TrimSpace(getEnv("INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET")),
		projectID: firstNonEmpty(
			secretSpec.projectID,
			strings.TrimSpace(getEnv("INFISICAL_PROJECT_ID")),
		),
		environment: firstNonEmpty(
			secretSpec.environment,
			strings.TrimSpace(getEnv("INFISICAL_ENV")),
		),
	}

	if _, err := url.Parse(resolvedConfig.siteURL); err != nil {
		return runtimeConfig{}, fmt.Errorf("invalid INFISICAL_SITE_URL: %w", err)
	}
	if resolvedConfig.clientID == "" || resolvedConfig.clientSecret == "" {
		return runtimeConfig{}, errors.New("infisical universal auth credentials are required (set INFISICAL_UNIVERSAL_AUTH_CLIENT_ID and INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET)")
	}
	if resolvedConfig.projectID == "" {
		return runtimeConfig{}, errors.New("infisical project id is required (set INFISICAL_PROJECT_ID or pass ?projectId=)")
	}
	if resolvedConfig.environment == "" {
		return runtimeConfig{}, errors.New("infisical environment is required (set INFISICAL_ENV or pass ?env=)")
	}
	return resolvedConfig, nil
}

func getCachedSecret(cacheKey string) (string, bool) {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	value, ok := secretCache[cacheKey]
	return value, ok
}

func storeCachedSecret(cacheKey, value string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	secretCache[cacheKey] = value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
