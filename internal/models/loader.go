package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Loader string

const (
	VANILLA  Loader = "vanilla"
	FABRIC   Loader = "fabric"
	QUILT    Loader = "quilt"
	FORGE    Loader = "forge"
	NEOFORGE Loader = "neoforge"
)

func AllLoaders() []Loader {
	return []Loader{VANILLA, FABRIC, QUILT, FORGE, NEOFORGE}
}

func (loader Loader) String() string {
	return string(loader)
}

// UsesInstaller reports whether the loader ships as an installer jar rather than a meta profile.
func (loader Loader) UsesInstaller() bool {
	return loader == FORGE || loader == NEOFORGE
}

func ParseLoader(value string) (Loader, error) {
	normalized := Loader(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return VANILLA, nil
	}
	for _, known := range AllLoaders() {
		if known == normalized {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown loader %q", value)
}

func (loader *Loader) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseLoader(raw)
	if err != nil {
		return err
	}
	*loader = parsed
	return nil
}
