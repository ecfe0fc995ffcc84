// Package serve runs the provider side of the Kite plugin handshake and
// owns the process lifecycle: it validates launch credentials from the
// environment, binds an ephemeral loopback endpoint, announces it with the
// handshake line on stdout, and serves the RPC dispatcher until an idle
// timeout, an explicit stop request, or a termination signal shuts the
// provider down.
package serve

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/kitehq/kite-plugin-go/pkg/dispatch"
	"github.com/kitehq/kite-plugin-go/pkg/provider"
	"github.com/kitehq/kite-plugin-go/pkg/rpc"
	"github.com/kitehq/kite-plugin-go/pkg/telemetry"
)

// lifecycle coordinates the shutdown race between call handlers, the idle
// watcher, and signal delivery. Whichever trigger wins the compare-and-swap
// performs the one close; every other trigger observes the provider as
// already stopping.
type lifecycle struct {
	stopped atomic.Bool
	stopCh  chan struct{}
}

func newLifecycle() *lifecycle {
	return &lifecycle{stopCh: make(chan struct{})}
}

// shutdown requests teardown. Safe to call from any goroutine, any number
// of times.
func (l *lifecycle) shutdown() {
	if !l.stopped.CompareAndSwap(false, true) {
		return
	}
	close(l.stopCh)
}

// Serve runs a provider until it is told to stop and returns nil on clean
// shutdown. A *HandshakeError return means the launch credentials were
// rejected; the binary should exit with code 1 without retrying. No socket
// is bound and no handshake line is written before credential validation
// passes.
func Serve(ctx context.Context, reg *provider.Registry, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	log := telemetry.Component(opts.Logger, "serve")

	idleTimeout, herr := validateLaunch(opts.Environ, log)
	if herr != nil {
		return herr
	}

	lis, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("binding transport endpoint: %w", err)
	}

	life := newLifecycle()
	clock := dispatch.NewIdleClock()

	dispatchLog := telemetry.Component(opts.Logger, "dispatch")
	disp := dispatch.New(reg, dispatch.Options{
		Logger:    dispatchLog,
		Metrics:   opts.Metrics,
		Tracer:    opts.Tracer,
		OnStop:    life.shutdown,
		StopDelay: opts.StopDelay,
	})
	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			dispatch.ActivityInterceptor(clock),
			dispatch.ObserveInterceptor(dispatchLog, opts.Metrics),
		),
	)
	rpc.RegisterProviderServer(grpcServer, disp)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()

	// The handshake line is the engine's only discovery mechanism for this
	// endpoint. It goes out exactly once, after the transport is listening.
	port := lis.Addr().(*net.TCPAddr).Port
	if _, err := fmt.Fprintf(opts.Out, "%s|%d|%d|%s\n", HandshakePrefix, ProtocolVersion, port, TransportKind); err != nil {
		grpcServer.Stop()
		return fmt.Errorf("writing handshake line: %w", err)
	}
	log.Info().
		Str("provider", reg.Name()).
		Str("version", reg.Version()).
		Int("port", port).
		Msg("provider serving")

	if idleTimeout > 0 {
		go watchIdle(life, clock, idleTimeout, log)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-life.stopCh:
		log.Info().Msg("stop requested")
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("termination signal received")
		life.shutdown()
	case <-ctx.Done():
		log.Info().Msg("context canceled")
		life.shutdown()
	case err := <-serveErr:
		// The transport failed underneath us before any stop request.
		return fmt.Errorf("transport failed: %w", err)
	}

	// Draining: wait for in-flight calls up to the grace period, then force
	// the transport down. There is no cancellation propagation into
	// handlers; the bound is the grace period.
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("provider stopped")
	case <-time.After(opts.GracePeriod):
		log.Warn().Dur("grace_period", opts.GracePeriod).Msg("grace period elapsed, forcing shutdown")
		grpcServer.Stop()
		<-done
	}
	return nil
}

// watchIdle periodically compares elapsed idle time against the timeout
// and triggers shutdown once it is reached. Check granularity is coarse on
// purpose: half the timeout, at most every 30 seconds.
func watchIdle(life *lifecycle, clock *dispatch.IdleClock, timeout time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(idleCheckInterval(timeout))
	defer ticker.Stop()
	for {
		select {
		case <-life.stopCh:
			return
		case <-ticker.C:
			if idle := clock.Idle(); idle >= timeout {
				log.Info().Dur("idle", idle).Dur("timeout", timeout).Msg("idle timeout reached, shutting down")
				life.shutdown()
				return
			}
		}
	}
}
