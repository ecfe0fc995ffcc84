package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/kitehq/kite-plugin-go/pkg/telemetry"
)

// ActivityInterceptor touches the idle clock before anything else runs, so
// every inbound call counts as activity uniformly, including calls whose
// payloads later turn out to be malformed.
func ActivityInterceptor(clock *IdleClock) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		clock.Touch()
		return handler(ctx, req)
	}
}

// ObserveInterceptor logs each call and records its duration in the
// metrics collector.
func ObserveInterceptor(log zerolog.Logger, metrics *telemetry.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		metrics.ObserveCall(info.FullMethod, elapsed.Seconds())
		log.Debug().
			Str("method", info.FullMethod).
			Dur("duration", elapsed).
			Err(err).
			Msg("handled rpc")
		return resp, err
	}
}
