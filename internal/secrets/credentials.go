package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"paybench-engine/internal/errs"
)

const (
	// "Service" groups the engine's secrets in the OS keychain.
	KeyringService = "paybench"

	accountProviderAppID = "adzuna:app_id"
	accountProviderKey   = "adzuna:app_key"
	accountSearchKey     = "algolia:api_key"
)

// ProviderCredentials returns the Adzuna app id/key pair from the keychain.
func ProviderCredentials() (appID, appKey string, err error) {
	appID, err = get(accountProviderAppID)
	if err != nil {
		return "", "", errs.Config(err, "provider app id unavailable")
	}
	appKey, err = get(accountProviderKey)
	if err != nil {
		return "", "", errs.Config(err, "provider app key unavailable")
	}
	return appID, appKey, nil
}

func SetProviderCredentials(appID, appKey string) error {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(appKey) == "" {
		return errs.Validation("provider app id and key are both required")
	}
	if err := keyring.Set(KeyringService, accountProviderAppID, appID); err != nil {
		return err
	}
	return keyring.Set(KeyringService, accountProviderKey, appKey)
}

// SearchAPIKey returns the search backend's query API key.
func SearchAPIKey() (string, error) {
	key, err := get(accountSearchKey)
	if err != nil {
		return "", errs.Config(err, "search api key unavailable")
	}
	return key, nil
}

func SetSearchAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errs.Validation("search api key is empty")
	}
	return keyring.Set(KeyringService, accountSearchKey, key)
}

func get(account string) (string, error) {
	v, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", errors.New("secret is empty")
	}
	return v, nil
}
