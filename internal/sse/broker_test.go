package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects all messages currently buffered on ch.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countType(msgs []string, typ string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+typ+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "note.created", Data: map[string]string{"note_id": "n1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"note_id":"n1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishNoteEvent_GraphThrottlePerVault(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent(KindCreated, "v1", "a")
	b.PublishNoteEvent(KindUpdated, "v1", "b")
	b.PublishNoteEvent(KindDeleted, "v2", "c")

	msgs := drain(ch)
	if got := countType(msgs, "note.created") + countType(msgs, "note.updated") + countType(msgs, "note.deleted"); got != 3 {
		t.Errorf("note events = %d, want 3", got)
	}
	if got := countType(msgs, "graph.updated"); got != 2 {
		t.Errorf("graph events = %d, want 2 (one per vault)", got)
	}
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: note.created") && !strings.Contains(m, `"vault_id":"v1"`) {
			t.Errorf("note event missing vault id: %q", m)
		}
	}
}

func TestSubscribeVault_Filters(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.SubscribeVault("v1")
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent(KindCreated, "v2", "other")
	b.PublishVaultEvent(KindUpdated, "v1")
	b.Publish(Event{Type: "system.ping", Data: map[string]string{}})

	msgs := drain(ch)
	if countType(msgs, "note.created") != 0 {
		t.Errorf("received event for another vault: %v", msgs)
	}
	if countType(msgs, "vault.updated") != 1 {
		t.Errorf("missing vault.updated: %v", msgs)
	}
	if countType(msgs, "system.ping") != 1 {
		t.Errorf("missing unscoped event: %v", msgs)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events?vault_id=v1", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishNoteEvent(KindUpdated, "v1", "x")
	b.PublishNoteEvent(KindUpdated, "v2", "y")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if strings.Contains(body, `"note_id":"y"`) {
		t.Errorf("handler leaked event from another vault: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "note.updated", Data: map[string]string{}})
	b.PublishNoteEvent(KindUpdated, "v", "x")
	b.PublishVaultEvent(KindDeleted, "v")
}
