package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestOfflineUUIDMatchesServerDerivation(t *testing.T) {
	assert.Equal(t, "b50ad385-829d-3141-a216-7e7d7539ba7f", OfflineUUID("Notch").String())

	offline := NewOffline("Notch")
	assert.Equal(t, "b50ad385829d3141a2167e7d7539ba7f", offline.CompactUUID())
	assert.Equal(t, "legacy", offline.UserType())
	assert.True(t, offline.Valid())
	assert.False(t, offline.NeedsAuthlib())
}

func TestUserTypeAndAuthlib(t *testing.T) {
	assert.Equal(t, "msa", Account{Provider: Microsoft}.UserType())
	assert.True(t, Account{Provider: Authlib, AuthServer: "https://auth.example"}.NeedsAuthlib())
	assert.False(t, Account{Provider: Authlib}.NeedsAuthlib())
}

func TestTokenStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewTokenStore()
	player := Account{Nickname: "steve", UUID: "1234", AccessToken: "secret", Provider: Microsoft}

	require.NoError(t, store.Save(player))

	player.AccessToken = ""
	loaded, err := store.Load(player)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.AccessToken)

	require.NoError(t, store.Forget(player))
	_, err = store.Load(player)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.NoError(t, store.Forget(player), "forgetting twice is fine")
}

func TestTokenStoreSkipsOffline(t *testing.T) {
	keyring.MockInit()
	store := NewTokenStore()
	offline := NewOffline("alex")
	require.NoError(t, store.Save(offline))

	offline.AccessToken = ""
	loaded, err := store.Load(offline)
	require.NoError(t, err)
	assert.Equal(t, "0", loaded.AccessToken)
}
