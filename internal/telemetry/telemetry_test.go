package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	enqueued   []posthog.Message
	enqueueErr error
	closeErr   error
	closeDelay time.Duration
	closeCount int
}

func (client *stubClient) Enqueue(msg posthog.Message) error {
	client.enqueued = append(client.enqueued, msg)
	return client.enqueueErr
}

func (client *stubClient) Close() error {
	client.closeCount++
	if client.closeDelay > 0 {
		time.Sleep(client.closeDelay)
	}
	return client.closeErr
}

type recordingLogger struct {
	messages []string
}

func (logger *recordingLogger) Debugf(format string, args ...interface{}) {
	logger.messages = append(logger.messages, fmt.Sprintf(format, args...))
}

func resetTelemetryState(tb testing.TB) {
	tb.Helper()
	Reset()
	tb.Cleanup(Reset)
}

func initWithClient(t *testing.T, client Client, config Config) {
	t.Helper()
	t.Setenv("MML_TELEMETRY", "")
	t.Setenv("POSTHOG_API_KEY", "test-key")
	t.Setenv("MACHINE_ID", "")
	machineIDProvider = func() (string, error) { return "machine-1", nil }
	clientBuilder = func(apiKey, endpoint string) (Client, error) {
		return client, nil
	}
	Init(config)
}

func TestCaptureWithoutInitIsNoop(t *testing.T) {
	resetTelemetryState(t)
	assert.NotPanics(t, func() {
		Capture("noop", nil)
	})
}

func TestInitAndCaptureSendsEvent(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, Config{})

	Capture("install", map[string]any{"loader": "fabric"})
	Capture("", nil)

	require.Len(t, client.enqueued, 1)
	capture := client.enqueued[0].(posthog.Capture)
	assert.Equal(t, "install", capture.Event)
	assert.Equal(t, "machine-1", capture.DistinctId)
}

func TestRecordCommandIsBufferedUntilShutdown(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, Config{})

	RecordCommand(CommandTelemetry{Command: "install", Success: true, Duration: 1500 * time.Millisecond})
	RecordCommand(CommandTelemetry{Command: "run", Error: &version.Error{Kind: version.Transient, Op: "download"}})
	RecordCommand(CommandTelemetry{})
	assert.Empty(t, client.enqueued)

	Shutdown(context.Background())

	require.Len(t, client.enqueued, 1)
	capture := client.enqueued[0].(posthog.Capture)
	assert.Equal(t, "session", capture.Event)
	summaries := capture.Properties["commands"].([]map[string]any)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1500), summaries[0]["duration_ms"])
	assert.Equal(t, "transient", summaries[1]["error_category"])
	assert.Equal(t, 1, client.closeCount)

	Shutdown(context.Background())
	assert.Equal(t, 1, client.closeCount)
}

func TestShutdownWithoutCommandsSendsNothing(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, Config{})

	Shutdown(context.Background())
	assert.Empty(t, client.enqueued)
	assert.Equal(t, 1, client.closeCount)
}

func TestInitHonorsDisableEnv(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv("MML_TELEMETRY", "off")
	t.Setenv("POSTHOG_API_KEY", "test-key")
	built := false
	clientBuilder = func(string, string) (Client, error) {
		built = true
		return &stubClient{}, nil
	}

	Init(Config{})
	assert.False(t, built)
}

func TestInitHandlesClientFactoryError(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv("MML_TELEMETRY", "")
	t.Setenv("POSTHOG_API_KEY", "test-key")
	log := &recordingLogger{}
	clientBuilder = func(string, string) (Client, error) {
		return nil, errors.New("boom")
	}

	Init(Config{Logger: log})
	Capture("x", nil)
	assert.Equal(t, []string{"telemetry disabled: boom"}, log.messages)
}

func TestMachineIDEnvOverridesProvider(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv("MACHINE_ID", "from-env")
	assert.Equal(t, "from-env", machineID())
}

func TestMachineIDFallback(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv("MACHINE_ID", "")
	machineIDProvider = func() (string, error) { return "", errors.New("nope") }
	assert.Equal(t, "unknown", machineID())
}

func TestCaptureLogsEnqueueError(t *testing.T) {
	resetTelemetryState(t)
	log := &recordingLogger{}
	initWithClient(t, &stubClient{enqueueErr: errors.New("full")}, Config{Logger: log})

	Capture("event", nil)
	assert.Equal(t, []string{"telemetry enqueue failed: full"}, log.messages)
}

func TestShutdownTimeoutLogs(t *testing.T) {
	resetTelemetryState(t)
	log := &recordingLogger{}
	initWithClient(t, &stubClient{closeDelay: 200 * time.Millisecond}, Config{Logger: log, FlushTimeout: 10 * time.Millisecond})

	Shutdown(context.Background())
	assert.Equal(t, []string{"telemetry flush timed out after 10ms"}, log.messages)
}

func TestShutdownLogsCloseError(t *testing.T) {
	resetTelemetryState(t)
	log := &recordingLogger{}
	initWithClient(t, &stubClient{closeErr: errors.New("closed")}, Config{Logger: log})

	Shutdown(context.Background())
	assert.Equal(t, []string{"telemetry close failed: closed"}, log.messages)
}

func TestErrorCategory(t *testing.T) {
	assert.Equal(t, "busy", ErrorCategory(&version.Error{Kind: version.Busy}))
	assert.Equal(t, "cancelled", ErrorCategory(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, "other", ErrorCategory(errors.New("plain")))
}
