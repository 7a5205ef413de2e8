package shared

import (
	"context"
	"fmt"

	"github.com/meza/minecraft-launcher/internal/java"
	"github.com/meza/minecraft-launcher/internal/models"
)

type UnsupportedJavaError struct {
	Major int
	Host  models.Host
}

func (e *UnsupportedJavaError) Error() string {
	return fmt.Sprintf("no java %d build for %s", e.Major, e.Host)
}

// InstallJava provisions the Temurin runtime for major on host under the data root.
func (e *Env) InstallJava(ctx context.Context, major int, host models.Host, fetcher java.Fetcher) (*java.Runtime, error) {
	runtime := java.New(major, e.Layout.DataDir, host)
	if !runtime.Supported() {
		return nil, &UnsupportedJavaError{Major: major, Host: host}
	}
	runtime.Init()
	if _, err := runtime.Install(ctx, e.Fs, fetcher); err != nil {
		return nil, err
	}
	return runtime, nil
}
