package reconcile

import "testing"

func TestOwnAccountAcceptedUnconditionally(t *testing.T) {
	e := New("me")

	if got := e.ApplyHitSync(HitSync{TargetID: "me", NewHealth: 60, Timestamp: 100}); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	// Even an older-stamped sync wins for the local player's own account.
	if got := e.ApplyHitSync(HitSync{TargetID: "me", NewHealth: 80, Timestamp: 50}); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
}

func TestRemoteStaleSyncDiscarded(t *testing.T) {
	e := New("me")

	e.PredictHit("bob", 70, 100)

	// Same timestamp is considered simultaneous and stays with the local
	// prediction; only a strictly newer stamp wins.
	if got := e.ApplyHitSync(HitSync{TargetID: "bob", NewHealth: 90, Timestamp: 100}); got != 70 {
		t.Fatalf("expected local 70 kept, got %d", got)
	}
	if got := e.ApplyHitSync(HitSync{TargetID: "bob", NewHealth: 90, Timestamp: 101}); got != 90 {
		t.Fatalf("expected newer sync adopted, got %d", got)
	}
}

// Final health must match the newest timestamp regardless of arrival
// order.
func TestTimestampTieBreakIndependentOfArrival(t *testing.T) {
	e := New("me")

	if got := e.ApplyHitSync(HitSync{TargetID: "bob", NewHealth: 80, Timestamp: 200}); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := e.ApplyHitSync(HitSync{TargetID: "bob", NewHealth: 90, Timestamp: 100}); got != 80 {
		t.Fatalf("late-arriving older update overrode newer value: %d", got)
	}
	if health, ok := e.Health("bob"); !ok || health != 80 {
		t.Fatalf("expected final health 80, got %d (tracked=%v)", health, ok)
	}
}

func TestPredictHitWritesImmediately(t *testing.T) {
	e := New("me")

	if got := e.PredictHit("bob", 90, 1000); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if health, ok := e.Health("bob"); !ok || health != 90 {
		t.Fatalf("prediction not recorded: %d (tracked=%v)", health, ok)
	}
}

func TestDeathIsSticky(t *testing.T) {
	e := New("me")

	e.PredictHit("bob", 0, 100)
	if !e.IsDead("bob") {
		t.Fatalf("zero health did not enter dead set")
	}

	// No later non-respawn update may resurrect the account.
	if got := e.ApplyHitSync(HitSync{TargetID: "bob", NewHealth: 50, Timestamp: 500}); got != 0 {
		t.Fatalf("dead account resurrected by hit sync: %d", got)
	}
	resolved := e.ApplySnapshot([]PlayerView{{Account: "bob", Health: 100}}, 5000)
	if resolved["bob"] != 0 {
		t.Fatalf("dead account resurrected by snapshot: %d", resolved["bob"])
	}
	if health, _ := e.Health("bob"); health != 0 {
		t.Fatalf("dead account health drifted: %d", health)
	}
}

func TestRespawnClearsDeadState(t *testing.T) {
	e := New("me")

	e.PredictHit("bob", 0, 100)
	e.ApplyRespawn("bob", 100, 200)

	if e.IsDead("bob") {
		t.Fatalf("respawn did not clear dead set")
	}
	if health, ok := e.Health("bob"); !ok || health != 100 {
		t.Fatalf("expected full health after respawn, got %d", health)
	}

	// The next snapshot keeps reporting the restored value.
	resolved := e.ApplySnapshot([]PlayerView{{Account: "bob", Health: 100}}, 5000)
	if resolved["bob"] != 100 {
		t.Fatalf("snapshot after respawn reported %d", resolved["bob"])
	}
}

func TestSnapshotPrefersRecentLocalValue(t *testing.T) {
	e := New("me")

	e.PredictHit("bob", 70, 1000)

	// 1.5 s later the snapshot still lags our fresher local damage.
	resolved := e.ApplySnapshot([]PlayerView{{Account: "bob", Health: 100}}, 2500)
	if resolved["bob"] != 70 {
		t.Fatalf("snapshot overrode recent local value: %d", resolved["bob"])
	}

	// Past the preference window the snapshot is adopted and re-stamped.
	resolved = e.ApplySnapshot([]PlayerView{{Account: "bob", Health: 100}}, 3100)
	if resolved["bob"] != 100 {
		t.Fatalf("stale local value kept past the window: %d", resolved["bob"])
	}
	if health, _ := e.Health("bob"); health != 100 {
		t.Fatalf("adopted snapshot not recorded: %d", health)
	}
}

func TestSnapshotAlwaysAdoptsOwnAccount(t *testing.T) {
	e := New("me")

	e.PredictHit("me", 70, 1000)
	resolved := e.ApplySnapshot([]PlayerView{{Account: "me", Health: 55}}, 1001)
	if resolved["me"] != 55 {
		t.Fatalf("server value for own account not adopted: %d", resolved["me"])
	}
}

func TestSnapshotPurgesDepartedAccounts(t *testing.T) {
	e := New("me")

	e.PredictHit("bob", 0, 100)
	e.PredictHit("carol", 80, 100)

	resolved := e.ApplySnapshot([]PlayerView{{Account: "carol", Health: 80}}, 5000)
	if _, present := resolved["bob"]; present {
		t.Fatalf("departed account still resolved")
	}
	if _, ok := e.Health("bob"); ok {
		t.Fatalf("departed account still tracked")
	}
	if e.IsDead("bob") {
		t.Fatalf("departed account still in dead set")
	}
	if health, ok := e.Health("carol"); !ok || health != 80 {
		t.Fatalf("surviving account lost: %d (tracked=%v)", health, ok)
	}
}

func TestConvergenceScenario(t *testing.T) {
	// A attacks B for 10 when B is at 100; every observer folds the same
	// hit sync and converges to 90.
	sync := HitSync{TargetID: "B", AttackerID: "A", Damage: 10, NewHealth: 90, Timestamp: 1000}

	observerA := New("A") // the attacker, who also predicted locally
	observerB := New("B") // the target
	observerC := New("C") // a bystander

	observerA.PredictHit("B", 90, 999)

	if got := observerA.ApplyHitSync(sync); got != 90 {
		t.Fatalf("attacker resolved %d", got)
	}
	if got := observerB.ApplyHitSync(sync); got != 90 {
		t.Fatalf("target resolved %d", got)
	}
	if got := observerC.ApplyHitSync(sync); got != 90 {
		t.Fatalf("bystander resolved %d", got)
	}
}

func TestMalformedHitSyncDropped(t *testing.T) {
	e := New("me")
	e.logf = func(string, ...any) {}

	if got := e.ApplyHitSync(HitSync{TargetID: "", NewHealth: 50}); got != 0 {
		t.Fatalf("malformed sync produced %d", got)
	}
	if len(e.lastKnownHealth) != 0 {
		t.Fatalf("malformed sync mutated state")
	}
}

func TestNegativeHealthClamped(t *testing.T) {
	e := New("me")

	if got := e.PredictHit("bob", -25, 100); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if !e.IsDead("bob") {
		t.Fatalf("negative health did not enter dead set")
	}
}

func TestReset(t *testing.T) {
	e := New("me")
	e.PredictHit("bob", 0, 100)
	e.Reset()

	if _, ok := e.Health("bob"); ok {
		t.Fatalf("reset kept tracked health")
	}
	if e.IsDead("bob") {
		t.Fatalf("reset kept dead set")
	}
}
