// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs, metadata and the data directory name.
const AppName = "minecraft-launcher"

// CommandName is the primary CLI command name.
const CommandName = "mml"

// LauncherBrand is substituted for ${launcher_name} unless settings override it.
const LauncherBrand = "mml"
