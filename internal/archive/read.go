package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// ErrEntryNotFound is returned when a named entry is absent from the archive.
var ErrEntryNotFound = errors.New("archive entry not found")

// ReadFile returns the content of one entry of a zip-family archive.
func ReadFile(fs afero.Fs, archivePath string, name string) ([]byte, error) {
	reader, file, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	wanted := strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	for _, entry := range reader.File {
		if entry.Name != wanted {
			continue
		}
		source, err := entry.Open()
		if err != nil {
			return nil, err
		}
		data, readErr := io.ReadAll(source)
		closeErr := source.Close()
		if readErr != nil {
			return nil, readErr
		}
		return data, closeErr
	}
	return nil, fmt.Errorf("%s in %s: %w", name, archivePath, ErrEntryNotFound)
}

// List returns every entry name of a zip-family archive.
func List(fs afero.Fs, archivePath string) ([]string, error) {
	reader, file, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	return names, nil
}

func ReadJSON(fs afero.Fs, archivePath string, name string, target any) error {
	data, err := ReadFile(fs, archivePath, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Query reads a JSON entry and evaluates a gjson path against it; it tolerates schemas
// that do not fit a typed struct.
func Query(fs afero.Fs, archivePath string, name string, path string) (gjson.Result, error) {
	data, err := ReadFile(fs, archivePath, name)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s in %s is not valid JSON", name, archivePath)
	}
	return gjson.GetBytes(data, path), nil
}

func ReadTOML(fs afero.Fs, archivePath string, name string, target any) error {
	data, err := ReadFile(fs, archivePath, name)
	if err != nil {
		return err
	}
	_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(target)
	return err
}
