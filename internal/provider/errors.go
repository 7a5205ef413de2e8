package provider

import (
	"fmt"

	"github.com/meza/minecraft-launcher/internal/models"
)

type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.Provider)
}

type ProjectNotFoundError struct {
	ProjectID string
	Provider  models.Platform
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project not found on %s: %s", e.Provider, e.ProjectID)
}

func (e *ProjectNotFoundError) Is(target error) bool {
	t, ok := target.(*ProjectNotFoundError)
	if !ok {
		return false
	}
	return e.ProjectID == t.ProjectID && e.Provider == t.Provider
}

type ProjectAPIError struct {
	ProjectID string
	Provider  models.Platform
	Err       error
}

func (e *ProjectAPIError) Error() string {
	return fmt.Sprintf("project %s cannot be fetched from %s: %v", e.ProjectID, e.Provider, e.Err)
}

func (e *ProjectAPIError) Unwrap() error {
	return e.Err
}

func apiError(err error, projectID string, provider models.Platform) error {
	return &ProjectAPIError{ProjectID: projectID, Provider: provider, Err: err}
}

type NoCompatibleFileError struct {
	Provider    models.Platform
	ProjectID   string
	GameVersion string
	Loader      models.Loader
}

func (e *NoCompatibleFileError) Error() string {
	return fmt.Sprintf("no file of %s on %s fits %s %s", e.ProjectID, e.Provider, e.Loader, e.GameVersion)
}
