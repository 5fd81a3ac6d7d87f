package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublishQueuesEncodedEvent(t *testing.T) {
	hub := NewHub(nil)

	hub.Publish(Event{Type: TypeBatchUpdate, Action: "batch_created", Message: "Batch B-20261015-01 planned", UserID: "u-1"})

	select {
	case msg := <-hub.Broadcast:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != TypeBatchUpdate || got.Action != "batch_created" || got.UserID != "u-1" {
			t.Errorf("event = %+v", got)
		}
	default:
		t.Fatal("nothing queued")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.Publish(Event{Type: TypeStockMovement, Action: "transfer_recorded"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with a full buffer")
	}
	if n := len(hub.Broadcast); n != broadcastBuffer {
		t.Errorf("queued = %d, want %d", n, broadcastBuffer)
	}
}

func TestJoinAfterStop(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if hub.Join(nil) {
		t.Error("Join succeeded on a stopped hub")
	}
	hub.Leave(nil)
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("clients = %d, want 0", n)
	}
}
