package models

// Platform names the mod provider a project reference came from.
type Platform string

const (
	CURSEFORGE Platform = "curseforge"
	MODRINTH   Platform = "modrinth"
	LOCAL      Platform = "local"
)

func (p Platform) String() string {
	return string(p)
}
