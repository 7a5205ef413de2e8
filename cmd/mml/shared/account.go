package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// TokenStore is the slice of account.TokenStore the commands use.
type TokenStore interface {
	Save(player account.Account) error
	Load(player account.Account) (account.Account, error)
}

func AddAccountFlags(flags *pflag.FlagSet) {
	flags.StringP("username", "u", "Player", i18n.T("cmd.account.flag.username"))
	flags.String("uuid", "", i18n.T("cmd.account.flag.uuid"))
	flags.String("auth-server", "", i18n.T("cmd.account.flag.auth_server"))
	flags.String("access-token", "", i18n.T("cmd.account.flag.access_token"))
}

type MissingUUIDError struct {
	AuthServer string
}

func (e *MissingUUIDError) Error() string {
	return fmt.Sprintf("--uuid is required when signing in through %s", e.AuthServer)
}

// ReadAccount builds the player from the account flags. Without --auth-server the player is
// offline. An authlib player's token comes from --access-token, which is then remembered in
// store, or from an earlier remembered token.
func ReadAccount(cmd *cobra.Command, store TokenStore) (account.Account, error) {
	flags := cmd.Flags()
	username, err := flags.GetString("username")
	if err != nil {
		return account.Account{}, err
	}
	authServer, err := flags.GetString("auth-server")
	if err != nil {
		return account.Account{}, err
	}
	id, err := flags.GetString("uuid")
	if err != nil {
		return account.Account{}, err
	}
	token, err := flags.GetString("access-token")
	if err != nil {
		return account.Account{}, err
	}

	authServer = strings.TrimSpace(authServer)
	if authServer == "" {
		player := account.NewOffline(username)
		if id != "" {
			player.UUID = id
		}
		return player, nil
	}
	if id == "" {
		return account.Account{}, &MissingUUIDError{AuthServer: authServer}
	}

	player := account.Account{
		Nickname:    username,
		UUID:        id,
		AccessToken: token,
		Provider:    account.Authlib,
		AuthServer:  authServer,
	}
	if store == nil {
		return player, nil
	}
	if token != "" {
		return player, store.Save(player)
	}
	loaded, err := store.Load(player)
	if errors.Is(err, account.ErrNoToken) {
		return player, fmt.Errorf("%w for %s; pass --access-token once", err, username)
	}
	return loaded, err
}
