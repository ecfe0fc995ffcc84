package serve

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kitehq/kite-plugin-go/pkg/telemetry"
)

// Environment variables supplied by the engine when it launches a provider.
const (
	// EnvCookie carries the launch magic cookie. A provider launched
	// without it refuses to start.
	EnvCookie = "KITE_PLUGIN_COOKIE"

	// EnvProtocolVersion carries the protocol version the engine speaks.
	// It must equal ProtocolVersion.
	EnvProtocolVersion = "KITE_PLUGIN_PROTOCOL_VERSION"

	// EnvIdleTimeout optionally overrides the idle shutdown timeout, in
	// milliseconds. Zero or negative disables idle shutdown.
	EnvIdleTimeout = "KITE_PLUGIN_IDLE_TIMEOUT_MS"
)

const (
	// ProtocolVersion is the single protocol version this implementation
	// speaks.
	ProtocolVersion = 1

	// HandshakePrefix starts the handshake line.
	HandshakePrefix = "KITE_PLUGIN"

	// TransportKind is the transport announced in the handshake line.
	TransportKind = "grpc"

	// DefaultIdleTimeout applies when the engine does not set one.
	DefaultIdleTimeout = 30 * time.Minute

	// DefaultGracePeriod bounds how long graceful shutdown waits for
	// in-flight calls before forcing the transport down.
	DefaultGracePeriod = 30 * time.Second

	// maxIdleCheckInterval caps how rarely the idle watcher wakes up.
	maxIdleCheckInterval = 30 * time.Second
)

// HandshakeError reports a launch credential problem. The provider must
// exit with code 1 before binding any network resource, so the engine
// never discovers an endpoint that failed validation.
type HandshakeError struct {
	// Reason describes what was missing or mismatched.
	Reason string
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return "launch validation failed: " + e.Reason
}

// Options configures Serve. The zero value serves on an ephemeral loopback
// port with credentials from the process environment and the handshake
// line on stdout.
type Options struct {
	// ListenAddr is the transport bind address. The default requests an
	// OS-assigned ephemeral loopback port.
	ListenAddr string `validate:"omitempty,hostname_port"`

	// GracePeriod bounds graceful shutdown. Defaults to DefaultGracePeriod.
	GracePeriod time.Duration `validate:"min=0"`

	// StopDelay is how long after a Stop response the shutdown trigger
	// fires. Defaults to the dispatcher's DefaultStopDelay.
	StopDelay time.Duration `validate:"min=0"`

	// Environ looks launch credentials up. Defaults to os.LookupEnv.
	Environ func(key string) (string, bool) `validate:"-"`

	// Out receives the handshake line. Defaults to os.Stdout. Nothing else
	// may be written to this stream before the handshake line.
	Out io.Writer `validate:"-"`

	// Logger receives lifecycle and dispatch logging. It must not share
	// Out's stream.
	Logger zerolog.Logger `validate:"-"`

	// Metrics optionally collects RPC metrics.
	Metrics *telemetry.Metrics `validate:"-"`

	// Tracer optionally produces per-operation spans.
	Tracer *telemetry.Tracer `validate:"-"`
}

var validate = validator.New()

// withDefaults fills unset options and validates the result.
func (o Options) withDefaults() (Options, error) {
	if o.ListenAddr == "" {
		o.ListenAddr = "127.0.0.1:0"
	}
	if o.GracePeriod == 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.Environ == nil {
		o.Environ = os.LookupEnv
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("invalid serve options: %w", err)
	}
	return o, nil
}

// validateLaunch checks the launch credentials and resolves the idle
// timeout. Any credential problem is fatal; a malformed idle timeout only
// falls back to the default with a warning.
func validateLaunch(lookup func(string) (string, bool), log zerolog.Logger) (time.Duration, *HandshakeError) {
	cookie, ok := lookup(EnvCookie)
	if !ok || cookie == "" {
		return 0, &HandshakeError{Reason: fmt.Sprintf(
			"%s is missing or empty; this binary is a Kite provider plugin and must be launched by the engine", EnvCookie)}
	}

	rawVersion, ok := lookup(EnvProtocolVersion)
	if !ok {
		return 0, &HandshakeError{Reason: EnvProtocolVersion + " is not set"}
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil {
		return 0, &HandshakeError{Reason: fmt.Sprintf("%s %q is not numeric", EnvProtocolVersion, rawVersion)}
	}
	if version != ProtocolVersion {
		return 0, &HandshakeError{Reason: fmt.Sprintf(
			"engine speaks protocol version %d, this provider speaks %d", version, ProtocolVersion)}
	}

	idleTimeout := DefaultIdleTimeout
	if raw, ok := lookup(EnvIdleTimeout); ok {
		ms, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			log.Warn().Str("value", raw).Msgf("%s is not numeric, using default idle timeout", EnvIdleTimeout)
		case ms <= 0:
			idleTimeout = 0
		default:
			idleTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	return idleTimeout, nil
}

// idleCheckInterval computes how often the idle watcher inspects the
// clock: half the timeout, capped at maxIdleCheckInterval.
func idleCheckInterval(timeout time.Duration) time.Duration {
	interval := timeout / 2
	if interval > maxIdleCheckInterval {
		interval = maxIdleCheckInterval
	}
	return interval
}
