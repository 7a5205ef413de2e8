package servers

import (
	"bytes"
	"context"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	entries, err := Read(context.Background(), afero.NewMemMapFs(), "/game/servers.dat")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteThenRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	accept := false
	entries := []Entry{
		{Name: "Home", Address: "mc.example.org:25566", ResourcePacks: &accept},
		{Name: "Hidden", Address: "10.0.0.2", Hidden: true, Icon: "iVBORw0KGgo="},
	}
	path := Path("/game")
	require.NoError(t, Write(context.Background(), fs, path, entries))

	read, err := Read(context.Background(), fs, path)
	require.NoError(t, err)
	assert.Equal(t, entries, read)
}

func TestReadsVanillaLayout(t *testing.T) {
	type vanillaServer struct {
		Name string `nbt:"name"`
		IP   string `nbt:"ip"`
	}
	var buffer bytes.Buffer
	require.NoError(t, nbt.NewEncoder(&buffer).Encode(struct {
		Servers []vanillaServer `nbt:"servers"`
	}{Servers: []vanillaServer{{Name: "Minecraft Server", IP: "play.example.org"}}}, ""))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/servers.dat", buffer.Bytes(), 0644))

	entries, err := Read(context.Background(), fs, "/game/servers.dat")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "play.example.org", entries[0].Address)
	assert.False(t, entries[0].Hidden)
	assert.Nil(t, entries[0].ResourcePacks)
}

func TestEnsure(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := Path("/game")

	added, err := Ensure(context.Background(), fs, path, "", "play.example.org")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = Ensure(context.Background(), fs, path, "Other name", "play.example.org")
	require.NoError(t, err)
	assert.False(t, added)

	entries, err := Read(context.Background(), fs, path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "play.example.org", Address: "play.example.org"}}, entries)
}

func TestReadRejectsGarbage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/servers.dat", []byte{0xff, 0x00}, 0644))
	_, err := Read(context.Background(), fs, "/game/servers.dat")
	assert.Error(t, err)
}
