package version

import "github.com/meza/minecraft-launcher/internal/models"

// Platform is the OS/arch pair rules and natives are evaluated against.
type Platform = models.Host

func HostPlatform() Platform {
	return models.CurrentHost()
}
