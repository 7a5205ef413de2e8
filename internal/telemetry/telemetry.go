// Package telemetry sends anonymous command usage to PostHog. It is disabled unless a
// release key is present and MML_TELEMETRY is not switched off.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/posthog/posthog-go"
)

const (
	endpoint            = "https://eu.i.posthog.com"
	sessionEvent        = "session"
	defaultFlushTimeout = 2 * time.Second
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

type CommandTelemetry struct {
	Command  string
	Success  bool
	Duration time.Duration
	Error    error
	Extra    map[string]any
}

type Config struct {
	Logger       Logger
	FlushTimeout time.Duration
}

var (
	mu           sync.Mutex
	client       Client
	distinctID   string
	logger       Logger = noopLogger{}
	flushTimeout        = defaultFlushTimeout
	commands     []CommandTelemetry
	sessionStart time.Time

	machineIDProvider = machineid.ID
	clientBuilder     = defaultClientFactory
	now               = time.Now
)

func defaultClientFactory(apiKey string, endpoint string) (Client, error) {
	return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
}

// Init prepares the client. It is a no-op when telemetry is disabled or already initialised.
func Init(config Config) {
	mu.Lock()
	defer mu.Unlock()

	if config.Logger != nil {
		logger = config.Logger
	}
	if config.FlushTimeout > 0 {
		flushTimeout = config.FlushTimeout
	}
	if client != nil || !environment.TelemetryEnabled() {
		return
	}

	built, err := clientBuilder(environment.PosthogAPIKey(), endpoint)
	if err != nil {
		logger.Debugf("telemetry disabled: %v", err)
		return
	}
	client = built
	distinctID = machineID()
	sessionStart = now()
}

func machineID() string {
	if value, present := os.LookupEnv("MACHINE_ID"); present && value != "" {
		return value
	}
	id, err := machineIDProvider()
	if err != nil || id == "" {
		return "unknown"
	}
	return id
}

// Capture enqueues a single event immediately.
func Capture(event string, properties map[string]any) {
	if event == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	enqueueLocked(event, properties)
}

func enqueueLocked(event string, properties map[string]any) {
	if client == nil {
		return
	}
	if err := client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: distinctID,
		Properties: properties,
	}); err != nil {
		logger.Debugf("telemetry enqueue failed: %v", err)
	}
}

// RecordCommand buffers a command result; everything recorded is sent as one session
// event by Shutdown.
func RecordCommand(command CommandTelemetry) {
	if command.Command == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return
	}
	commands = append(commands, command)
}

func buildCommandSummaries(recorded []CommandTelemetry) []map[string]any {
	summaries := make([]map[string]any, 0, len(recorded))
	for _, command := range recorded {
		summary := map[string]any{
			"command": command.Command,
			"success": command.Success,
		}
		if command.Duration > 0 {
			summary["duration_ms"] = command.Duration.Milliseconds()
		}
		if command.Error != nil {
			summary["error"] = command.Error.Error()
			summary["error_category"] = ErrorCategory(command.Error)
		}
		for key, value := range command.Extra {
			summary[key] = value
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// ErrorCategory reduces an error to a stable label.
func ErrorCategory(err error) string {
	var tagged *version.Error
	if errors.As(err, &tagged) {
		return tagged.Kind.String()
	}
	if errors.Is(err, context.Canceled) {
		return version.Cancelled.String()
	}
	return "other"
}

// Shutdown flushes the session event and closes the client, waiting at most the flush
// timeout or until ctx is done.
func Shutdown(ctx context.Context) {
	mu.Lock()
	current := client
	if current == nil {
		mu.Unlock()
		return
	}
	if len(commands) > 0 {
		enqueueLocked(sessionEvent, map[string]any{
			"commands":    buildCommandSummaries(commands),
			"duration_ms": now().Sub(sessionStart).Milliseconds(),
			"version":     environment.AppVersion(),
		})
	}
	client = nil
	commands = nil
	timeout := flushTimeout
	log := logger
	mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- current.Close() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			log.Debugf("telemetry close failed: %v", err)
		}
	case <-timer.C:
		log.Debugf("telemetry flush timed out after %s", timeout)
	case <-ctx.Done():
		log.Debugf("telemetry flush abandoned: %v", ctx.Err())
	}
}

// Reset drops all state (tests).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	client = nil
	commands = nil
	distinctID = ""
	logger = noopLogger{}
	flushTimeout = defaultFlushTimeout
	machineIDProvider = machineid.ID
	clientBuilder = defaultClientFactory
	now = time.Now
}
