package account

import (
	"errors"
	"fmt"

	"github.com/meza/minecraft-launcher/internal/constants"
	"github.com/zalando/go-keyring"
)

var ErrNoToken = errors.New("no stored access token")

// TokenStore keeps access tokens in the OS keychain, keyed by account uuid.
type TokenStore struct {
	Service string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{Service: constants.AppName}
}

func (s *TokenStore) Save(account Account) error {
	if account.AccessToken == "" || account.Provider == Offline {
		return nil
	}
	if err := keyring.Set(s.Service, account.UUID, account.AccessToken); err != nil {
		return fmt.Errorf("store token for %s: %w", account.Nickname, err)
	}
	return nil
}

// Load fills AccessToken from the keychain. Offline accounts never need one.
func (s *TokenStore) Load(account Account) (Account, error) {
	if account.Provider == Offline {
		if account.AccessToken == "" {
			account.AccessToken = "0"
		}
		return account, nil
	}
	token, err := keyring.Get(s.Service, account.UUID)
	if errors.Is(err, keyring.ErrNotFound) {
		return account, ErrNoToken
	}
	if err != nil {
		return account, fmt.Errorf("load token for %s: %w", account.Nickname, err)
	}
	account.AccessToken = token
	return account, nil
}

func (s *TokenStore) Forget(account Account) error {
	err := keyring.Delete(s.Service, account.UUID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
