package reconcile

import (
	"testing"
	"time"
)

func TestThrottleLimitsCadence(t *testing.T) {
	throttle := NewThrottle(50 * time.Millisecond)
	start := time.Unix(1000, 0)

	if !throttle.Allow(start) {
		t.Fatalf("first update refused")
	}
	if throttle.Allow(start.Add(30 * time.Millisecond)) {
		t.Fatalf("update allowed inside the interval")
	}
	if !throttle.Allow(start.Add(60 * time.Millisecond)) {
		t.Fatalf("update refused past the interval")
	}
}

func TestThrottleDefaultsInterval(t *testing.T) {
	throttle := NewThrottle(0)
	start := time.Unix(1000, 0)

	throttle.Allow(start)
	if throttle.Allow(start.Add(49 * time.Millisecond)) {
		t.Fatalf("default interval shorter than 50ms")
	}
	if !throttle.Allow(start.Add(50 * time.Millisecond)) {
		t.Fatalf("update refused at the default interval")
	}
}
