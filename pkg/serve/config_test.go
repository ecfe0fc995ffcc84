package serve

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestValidateLaunch(t *testing.T) {
	tests := []struct {
		name        string
		vars        map[string]string
		wantTimeout time.Duration
		wantErr     bool
	}{
		{
			name:    "no environment",
			vars:    map[string]string{},
			wantErr: true,
		},
		{
			name: "empty cookie",
			vars: map[string]string{
				EnvCookie:          "",
				EnvProtocolVersion: "1",
			},
			wantErr: true,
		},
		{
			name: "missing protocol version",
			vars: map[string]string{
				EnvCookie: "c0ffee",
			},
			wantErr: true,
		},
		{
			name: "non-numeric protocol version",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "one",
			},
			wantErr: true,
		},
		{
			name: "unsupported protocol version",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "2",
			},
			wantErr: true,
		},
		{
			name: "valid with default idle timeout",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "1",
			},
			wantTimeout: DefaultIdleTimeout,
		},
		{
			name: "explicit idle timeout",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "1",
				EnvIdleTimeout:     "60000",
			},
			wantTimeout: time.Minute,
		},
		{
			name: "zero idle timeout disables",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "1",
				EnvIdleTimeout:     "0",
			},
			wantTimeout: 0,
		},
		{
			name: "negative idle timeout disables",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "1",
				EnvIdleTimeout:     "-5",
			},
			wantTimeout: 0,
		},
		{
			name: "malformed idle timeout falls back to default",
			vars: map[string]string{
				EnvCookie:          "c0ffee",
				EnvProtocolVersion: "1",
				EnvIdleTimeout:     "soon",
			},
			wantTimeout: DefaultIdleTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout, herr := validateLaunch(envFrom(tt.vars), zerolog.Nop())
			if (herr != nil) != tt.wantErr {
				t.Fatalf("validateLaunch() error = %v, wantErr %v", herr, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if timeout != tt.wantTimeout {
				t.Errorf("idle timeout = %v, want %v", timeout, tt.wantTimeout)
			}
		})
	}
}

func TestIdleCheckInterval(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "short timeout halves", timeout: 10 * time.Second, want: 5 * time.Second},
		{name: "minute timeout caps at max", timeout: time.Minute, want: 30 * time.Second},
		{name: "long timeout caps at max", timeout: 2 * time.Hour, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idleCheckInterval(tt.timeout); got != tt.want {
				t.Errorf("idleCheckInterval(%v) = %v, want %v", tt.timeout, got, tt.want)
			}
		})
	}
}

func TestLifecycleShutdownIdempotent(t *testing.T) {
	life := newLifecycle()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A second close of stopCh would panic; racing triggers must
			// collapse into one.
			life.shutdown()
		}()
	}
	wg.Wait()

	select {
	case <-life.stopCh:
	default:
		t.Fatal("stop channel was never closed")
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts, err := Options{}.withDefaults()
	if err != nil {
		t.Fatalf("withDefaults() error = %v", err)
	}
	if opts.ListenAddr != "127.0.0.1:0" {
		t.Errorf("ListenAddr = %q", opts.ListenAddr)
	}
	if opts.GracePeriod != DefaultGracePeriod {
		t.Errorf("GracePeriod = %v", opts.GracePeriod)
	}
	if opts.Environ == nil || opts.Out == nil {
		t.Error("Environ or Out was left nil")
	}

	if _, err := (Options{ListenAddr: "not an address"}).withDefaults(); err == nil {
		t.Error("withDefaults() accepted a malformed listen address")
	}
}
