package httpclient

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/meza/minecraft-launcher/internal/i18n"
)

// MetadataTimeout bounds one manifest, version JSON, loader metadata or provider API call.
// File transfers are bounded by the transport's idle timeouts instead.
const MetadataTimeout = 15 * time.Second

// TimeoutError is a request that ran past its deadline or stalled on the network.
// Host names the origin when the failing request is known.
type TimeoutError struct {
	Host string
	Err  error
}

func (e *TimeoutError) Error() string {
	message := i18n.T("error.network_timeout")
	if e.Host == "" {
		return message
	}
	return message + " (" + e.Host + ")"
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func (e *TimeoutError) Timeout() bool {
	return true
}

func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapTimeoutError turns a timeout into a *TimeoutError and passes anything else through.
func WrapTimeoutError(err error) error {
	if !IsTimeoutError(err) {
		return err
	}
	var existing *TimeoutError
	if errors.As(err, &existing) {
		return existing
	}
	wrapped := &TimeoutError{Err: err}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if parsed, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			wrapped.Host = parsed.Host
		}
	}
	return wrapped
}

func WithMetadataTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, MetadataTimeout)
}
