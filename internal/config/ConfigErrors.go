package config

import "fmt"

type FileInvalidError struct {
	Path string
	Err  error
}

type ConfigFileNotFoundException struct {
	Path string
	Err  error
}

// SettingsInvalidError reports a settings.toml that exists but cannot be decoded.
type SettingsInvalidError struct {
	Path string
	Err  error
}

func (e *FileInvalidError) Error() string {
	return fmt.Sprintf("Configuration file is invalid: %s", e.Err)
}

func (e *FileInvalidError) Unwrap() error {
	return e.Err
}

func (e *ConfigFileNotFoundException) Error() string {
	return fmt.Sprintf("Configuration file not found: %s", e.Path)
}

func (e *ConfigFileNotFoundException) Unwrap() error {
	return e.Err
}

func (e *SettingsInvalidError) Error() string {
	return fmt.Sprintf("Settings file %s is invalid: %s", e.Path, e.Err)
}

func (e *SettingsInvalidError) Unwrap() error {
	return e.Err
}
