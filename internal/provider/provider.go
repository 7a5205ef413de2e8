// Package provider resolves mod, resource pack, shader and world projects on Modrinth and
// CurseForge into the project references an instance installs from.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var newRequestWithContext = http.NewRequestWithContext

type ReleaseType string

const (
	Release ReleaseType = "release"
	Beta    ReleaseType = "beta"
	Alpha   ReleaseType = "alpha"
)

type Clients struct {
	Modrinth   httpclient.Doer
	Curseforge httpclient.Doer
}

func DefaultClients(limiter *rate.Limiter) Clients {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	client := httpclient.NewRLClient(limiter)
	return Clients{
		Modrinth:   client,
		Curseforge: client,
	}
}

type Request struct {
	Provider    models.Platform
	ProjectID   string
	Kind        models.ProjectKind
	GameVersion string
	Loader      models.Loader
	// AllowedReleaseTypes defaults to release only.
	AllowedReleaseTypes []ReleaseType
	// AllowFallback walks the patch version down (1.21.1, then 1.21) when nothing matches.
	AllowFallback bool
	// FixedVersion pins the provider's version number (Modrinth) or file name (CurseForge).
	FixedVersion string
}

func (r Request) allows(releaseType ReleaseType) bool {
	allowed := r.AllowedReleaseTypes
	if len(allowed) == 0 {
		allowed = []ReleaseType{Release}
	}
	for _, candidate := range allowed {
		if candidate == releaseType {
			return true
		}
	}
	return false
}

func (r Request) kind() models.ProjectKind {
	if r.Kind == "" {
		return models.KindMod
	}
	return r.Kind
}

// Resolve picks the newest compatible file and returns it as a project reference.
func Resolve(ctx context.Context, request Request, clients Clients) (models.ProjectReference, error) {
	ctx, span := perf.StartSpan(ctx, "provider.resolve",
		perf.WithAttributes(
			attribute.String("provider", string(request.Provider)),
			attribute.String("project_id", request.ProjectID),
			attribute.String("kind", string(request.kind())),
			attribute.String("loader", string(request.Loader)),
			attribute.String("game_version", request.GameVersion),
			attribute.Bool("allow_fallback", request.AllowFallback),
		),
	)
	defer span.End()

	var reference models.ProjectReference
	var err error
	switch request.Provider {
	case models.MODRINTH:
		reference, err = resolveModrinth(ctx, request, clients.Modrinth)
	case models.CURSEFORGE:
		reference, err = resolveCurseforge(ctx, request, clients.Curseforge)
	default:
		err = &UnknownProviderError{Provider: string(request.Provider)}
	}

	span.SetAttributes(attribute.Bool("success", err == nil))
	if err != nil {
		span.SetAttributes(attribute.String("error_type", fmt.Sprintf("%T", err)))
		return models.ProjectReference{}, err
	}
	return reference, nil
}

// candidateVersions is the game version followed by its fallbacks when allowed.
func candidateVersions(request Request) []string {
	versions := []string{request.GameVersion}
	if !request.AllowFallback {
		return versions
	}
	current := request.GameVersion
	for {
		next, ok := nextVersionDown(current)
		if !ok {
			return versions
		}
		versions = append(versions, next)
		current = next
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
