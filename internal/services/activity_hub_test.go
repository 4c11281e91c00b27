package services

import (
	"testing"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
)

func TestActivityHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewActivityHub()
	if hub.ClientCount() != 0 {
		t.Fatalf("new hub should have 0 clients, got %d", hub.ClientCount())
	}

	hub.Subscribe("client1")
	hub.Subscribe("client2")
	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.Unsubscribe("client1")
	hub.Unsubscribe("nonexistent")
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after unsubscribe, got %d", hub.ClientCount())
	}
}

func TestActivityHub_ResubscribeClosesOldChannel(t *testing.T) {
	hub := NewActivityHub()
	first := hub.Subscribe("client1")
	hub.Subscribe("client1")

	if _, open := <-first; open {
		t.Error("replaced channel should be closed")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
}

func TestActivityHub_PublishMultipleClients(t *testing.T) {
	hub := NewActivityHub()
	ch1 := hub.Subscribe("client1")
	ch2 := hub.Subscribe("client2")

	hub.Publish(CommitActivity(models.Commit{ID: 7, Message: "init"}))

	for i, ch := range []<-chan Activity{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Kind != ActivityCommit || got.Commit.ID != 7 {
				t.Errorf("client%d: unexpected activity %+v", i+1, got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client%d: timed out waiting for activity", i+1)
		}
	}
}

func TestActivityHub_NonBlockingPublish(t *testing.T) {
	hub := NewActivityHub()
	ch := hub.Subscribe("slow_client")

	for i := 0; i < 200; i++ {
		hub.Publish(MessageActivity(models.Message{ID: uint(i + 1)}))
	}

	if len(ch) != hub.buffer {
		t.Errorf("buffered = %d, expected %d", len(ch), hub.buffer)
	}
}

func TestGetActivityHub_Singleton(t *testing.T) {
	if GetActivityHub() != GetActivityHub() {
		t.Error("GetActivityHub should return the same instance")
	}
}

func TestActivityHub_CloseAll(t *testing.T) {
	hub := NewActivityHub()
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")

	hub.CloseAll()

	if _, ok := <-a; ok {
		t.Error("channel a should be closed")
	}
	if _, ok := <-b; ok {
		t.Error("channel b should be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
	hub.Unsubscribe("a")
}
