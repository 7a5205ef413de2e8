package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/minecraft"
)

// Kind tags why an Instance operation did not fully succeed.
type Kind int

const (
	Unknown Kind = iota
	// NotConfigured means the descriptor or manifest the operation needs is missing.
	NotConfigured
	Transient
	Malformed
	Unsupported
	Cancelled
	// Busy is returned when another install holds the instance.
	Busy
	// Partial means the pipeline finished but some downloads failed.
	Partial
)

func (k Kind) String() string {
	switch k {
	case NotConfigured:
		return "not_configured"
	case Transient:
		return "transient"
	case Malformed:
		return "malformed"
	case Unsupported:
		return "unsupported"
	case Cancelled:
		return "cancelled"
	case Busy:
		return "busy"
	case Partial:
		return "partial"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Kind, so errors.Is(err, &Error{Kind: Busy}) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && (other.Op == "" || other.Op == e.Op)
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return Unknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify tags an untagged error by inspecting its chain. Tagged errors pass through.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return newError(kindFor(err), op, err)
}

func kindFor(err error) Kind {
	var (
		syntax    *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		status    *downloader.StatusError
		unknownID *minecraft.UnknownVersionError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled
	case errors.As(err, &status):
		if status.StatusCode == http.StatusNotFound {
			return Unsupported
		}
		return Transient
	case httpclient.IsTimeoutError(err):
		return Transient
	case errors.As(err, &syntax), errors.As(err, &typeErr):
		return Malformed
	case errors.As(err, &unknownID):
		return Unsupported
	default:
		return Transient
	}
}
