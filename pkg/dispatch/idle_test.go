package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
)

func TestIdleClock(t *testing.T) {
	clock := NewIdleClock()
	if idle := clock.Idle(); idle > time.Second {
		t.Errorf("fresh clock reports %v idle", idle)
	}

	time.Sleep(20 * time.Millisecond)
	before := clock.Idle()
	if before < 20*time.Millisecond {
		t.Errorf("Idle() = %v after sleeping 20ms", before)
	}

	clock.Touch()
	if after := clock.Idle(); after >= before {
		t.Errorf("Touch() did not reset idle time: %v >= %v", after, before)
	}
}

func TestIdleClockConcurrentTouch(t *testing.T) {
	clock := NewIdleClock()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Touch()
				_ = clock.Idle()
			}
		}()
	}
	wg.Wait()

	if idle := clock.Idle(); idle > time.Second {
		t.Errorf("Idle() = %v after concurrent touches", idle)
	}
}

func TestActivityInterceptorTouchesFirst(t *testing.T) {
	clock := NewIdleClock()
	time.Sleep(20 * time.Millisecond)

	var idleDuringCall time.Duration
	interceptor := ActivityInterceptor(clock)
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) {
		idleDuringCall = clock.Idle()
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error = %v", err)
	}
	if idleDuringCall >= 20*time.Millisecond {
		t.Errorf("clock was not touched before the handler ran: idle = %v", idleDuringCall)
	}
}
