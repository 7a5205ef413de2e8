package minecraft

import (
	"errors"
	"fmt"
)

// ErrVersionListUnavailable matches every failed read of the piston-meta version list.
var ErrVersionListUnavailable = errors.New("minecraft version list unavailable")

var ErrNoLatestRelease = errors.New("could not determine the latest minecraft release")

// VersionListStatusError is a non-200 answer for the version list.
type VersionListStatusError struct {
	StatusCode int
}

func (e *VersionListStatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrVersionListUnavailable, e.StatusCode)
}

func (e *VersionListStatusError) Is(target error) bool {
	return target == ErrVersionListUnavailable
}

// UnknownVersionError is an id missing from the version list. Snapshots that Mojang pulled
// end up here too.
type UnknownVersionError struct {
	ID string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown minecraft version %q", e.ID)
}
