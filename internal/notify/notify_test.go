package notify

import (
	"testing"
	"time"
)

func TestNotifyWithoutWebhookDoesNotPanic(t *testing.T) {
	n := New("")
	n.Notify(Event{Type: EventConfirmedOffline, Pool: "viabtc", WorkerName: "w1", MinerID: "m1", Timestamp: time.Now()})
}

func TestNotifyRespectsCooldown(t *testing.T) {
	n := New("")
	now := time.Now()

	n.Notify(Event{Type: EventConfirmedOffline, Pool: "viabtc", WorkerName: "w1", MinerID: "m1", Timestamp: now})
	n.mu.Lock()
	before := n.cooldown["viabtc:m1:confirmed_offline"]
	n.mu.Unlock()

	n.Notify(Event{Type: EventConfirmedOffline, Pool: "viabtc", WorkerName: "w1", MinerID: "m1", Timestamp: now.Add(time.Minute)})
	n.mu.Lock()
	after := n.cooldown["viabtc:m1:confirmed_offline"]
	n.mu.Unlock()

	if !before.Equal(after) {
		t.Errorf("cooldown timestamp changed on a suppressed repeat notification: before=%v after=%v", before, after)
	}
}

func TestNotifyAllowsAfterCooldownExpires(t *testing.T) {
	n := New("")
	now := time.Now()

	n.Notify(Event{Type: EventConfirmedOffline, Pool: "viabtc", WorkerName: "w1", MinerID: "m1", Timestamp: now})
	n.Notify(Event{Type: EventConfirmedOffline, Pool: "viabtc", WorkerName: "w1", MinerID: "m1", Timestamp: now.Add(cooldownWindow + time.Second)})

	n.mu.Lock()
	defer n.mu.Unlock()
	got := n.cooldown["viabtc:m1:confirmed_offline"]
	want := now.Add(cooldownWindow + time.Second)
	if !got.Equal(want) {
		t.Errorf("cooldown timestamp = %v, want %v (should update on a fresh notification)", got, want)
	}
}
