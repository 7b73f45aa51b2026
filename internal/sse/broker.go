// Package sse implements a Server-Sent Events broker for note and vault
// change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Change kinds accepted by PublishNoteEvent and PublishVaultEvent.
const (
	KindCreated  = "created"
	KindUpdated  = "updated"
	KindDeleted  = "deleted"
	KindLinked   = "linked"
	KindImported = "imported"
)

// Event represents an SSE event to broadcast. Events with a VaultID are
// only delivered to clients watching that vault or all vaults.
type Event struct {
	Type    string `json:"type"`
	VaultID string `json:"-"`
	Data    any    `json:"data"`
}

type changeReq struct {
	scope   string
	kind    string
	vaultID string
	noteID  string
}

type subscription struct {
	ch      chan []byte
	vaultID string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the per-vault graph
// throttle timestamps; public methods talk to it over channels.
type Broker struct {
	graphMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one graph.updated event per
// vault every graphThrottle.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:      graphThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	lastGraph := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, vaultID := range clients {
			if vaultID != "" && event.VaultID != "" && vaultID != event.VaultID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.vaultID

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			data := map[string]string{"vault_id": req.vaultID}
			if req.noteID != "" {
				data["note_id"] = req.noteID
			}
			broadcast(Event{Type: req.scope + "." + req.kind, VaultID: req.vaultID, Data: data})

			if req.scope == "vault" && req.kind == KindDeleted {
				delete(lastGraph, req.vaultID)
				continue
			}
			now := time.Now()
			if now.Sub(lastGraph[req.vaultID]) >= b.graphMin {
				lastGraph[req.vaultID] = now
				broadcast(Event{
					Type:    "graph.updated",
					VaultID: req.vaultID,
					Data:    map[string]string{"vault_id": req.vaultID},
				})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client watching every vault.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeVault("")
}

// SubscribeVault adds a client that only receives events for vaultID, plus
// events not tied to a vault. An empty vaultID watches everything.
func (b *Broker) SubscribeVault(vaultID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, vaultID: vaultID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all interested clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes note.<kind> and a throttled graph.updated for the vault.
func (b *Broker) PublishNoteEvent(kind, vaultID, noteID string) {
	b.change(changeReq{scope: "note", kind: kind, vaultID: vaultID, noteID: noteID})
}

// PublishVaultEvent publishes vault.<kind> and a throttled graph.updated for the vault.
func (b *Broker) PublishVaultEvent(kind, vaultID string) {
	b.change(changeReq{scope: "vault", kind: kind, vaultID: vaultID})
}

func (b *Broker) change(req changeReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// vault_id query parameter narrows the stream to one vault.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeVault(r.URL.Query().Get("vault_id"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
