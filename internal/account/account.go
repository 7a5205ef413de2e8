// Package account carries the player identity handed to the launch pipeline.
package account

import (
	"crypto/md5" // #nosec G501 -- offline uuids are defined as MD5 name-based uuids.
	"strings"

	"github.com/google/uuid"
)

type Provider string

const (
	Microsoft Provider = "microsoft"
	Offline   Provider = "offline"
	// Authlib accounts authenticate against a third-party Yggdrasil server through authlib-injector.
	Authlib Provider = "authlib"
)

type Account struct {
	Nickname    string   `json:"nickname"`
	UUID        string   `json:"uuid"`
	AccessToken string   `json:"-"`
	XUID        string   `json:"xuid,omitempty"`
	Provider    Provider `json:"provider"`
	AuthServer  string   `json:"authServer,omitempty"`
}

// NewOffline builds an account whose uuid matches what the vanilla server derives for name.
func NewOffline(name string) Account {
	return Account{
		Nickname:    name,
		UUID:        OfflineUUID(name).String(),
		AccessToken: "0",
		Provider:    Offline,
	}
}

// OfflineUUID is the version 3 uuid of "OfflinePlayer:<name>" without a namespace.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name)) // #nosec G401
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}

func (a Account) NeedsAuthlib() bool {
	return a.Provider == Authlib && a.AuthServer != ""
}

// UserType is the value of the ${user_type} placeholder.
func (a Account) UserType() string {
	if a.Provider == Microsoft {
		return "msa"
	}
	return "legacy"
}

// CompactUUID strips dashes, the form the game expects on its command line.
func (a Account) CompactUUID() string {
	return strings.ReplaceAll(a.UUID, "-", "")
}

func (a Account) Valid() bool {
	return strings.TrimSpace(a.Nickname) != "" && strings.TrimSpace(a.UUID) != ""
}
