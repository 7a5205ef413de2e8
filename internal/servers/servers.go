// Package servers reads and writes servers.dat, the multiplayer list the game shows and the
// quick-play launch path resolves addresses against.
package servers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/nbt"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const FileName = "servers.dat"

// ResourcePacks mirrors acceptTextures: nil asks the player.
type Entry struct {
	Name          string
	Address       string
	Icon          string
	Hidden        bool
	ResourcePacks *bool
}

type serverTag struct {
	Name           string `nbt:"name"`
	IP             string `nbt:"ip"`
	Icon           string `nbt:"icon,omitempty"`
	Hidden         int8   `nbt:"hidden"`
	AcceptTextures *int8  `nbt:"acceptTextures,omitempty"`
}

type fileTag struct {
	Servers []serverTag `nbt:"servers"`
}

func Path(instanceDir string) string {
	return filepath.Join(instanceDir, FileName)
}

// Read returns an empty list when the file does not exist yet.
func Read(ctx context.Context, fs afero.Fs, path string) ([]Entry, error) {
	_, span := perf.StartSpan(ctx, "io.servers.read", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, err
	}
	var file fileTag
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(file.Servers))
	for _, tag := range file.Servers {
		entry := Entry{Name: tag.Name, Address: tag.IP, Icon: tag.Icon, Hidden: tag.Hidden != 0}
		if tag.AcceptTextures != nil {
			accept := *tag.AcceptTextures != 0
			entry.ResourcePacks = &accept
		}
		entries = append(entries, entry)
	}
	span.SetAttributes(attribute.Int("servers", len(entries)))
	return entries, nil
}

func Write(ctx context.Context, fs afero.Fs, path string, entries []Entry) error {
	_, span := perf.StartSpan(ctx, "io.servers.write", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	file := fileTag{Servers: make([]serverTag, 0, len(entries))}
	for _, entry := range entries {
		tag := serverTag{Name: entry.Name, IP: entry.Address, Icon: entry.Icon, Hidden: flag(entry.Hidden)}
		if entry.ResourcePacks != nil {
			accept := flag(*entry.ResourcePacks)
			tag.AcceptTextures = &accept
		}
		file.Servers = append(file.Servers, tag)
	}

	var buffer bytes.Buffer
	if err := nbt.NewEncoder(&buffer).Encode(file, ""); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return config.WriteFileAtomic(fs, path, buffer.Bytes(), 0644)
}

// Ensure adds a visible entry for address unless one with that address already exists.
func Ensure(ctx context.Context, fs afero.Fs, path string, name string, address string) (bool, error) {
	entries, err := Read(ctx, fs, path)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Address == address {
			return false, nil
		}
	}
	if name == "" {
		name = address
	}
	entries = append(entries, Entry{Name: name, Address: address})
	return true, Write(ctx, fs, path, entries)
}

func flag(value bool) int8 {
	if value {
		return 1
	}
	return 0
}
