package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	// Registration happens in the upgrade handler; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			conn.Close()
			server.Close()
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, server
}

func TestPublishDeliversEvent(t *testing.T) {
	hub := NewHub()
	conn, server := dialHub(t, hub)
	defer server.Close()
	defer conn.Close()

	hub.Publish(EventEntryCreated, "open", map[string]int{"id": 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Type != EventEntryCreated || event.EntryType != "open" {
		t.Errorf("event = %+v", event)
	}
}

func TestPublishGateSuppressesEvents(t *testing.T) {
	hub := NewHub()
	hub.Gate = func() bool { return false }
	conn, server := dialHub(t, hub)
	defer server.Close()
	defer conn.Close()

	hub.Publish(EventDeductionsApplied, "akra", nil)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("gated event was delivered")
	}
}

func TestConcurrentPublishesAreSerializedPerConnection(t *testing.T) {
	// Publish is called from handler and service goroutines concurrently;
	// the per-connection write lock must keep frames intact (gorilla
	// panics on concurrent writes to one connection).
	hub := NewHub()
	conn, server := dialHub(t, hub)
	defer server.Close()
	defer conn.Close()

	const publishers = 25
	var wg sync.WaitGroup
	wg.Add(publishers)
	for i := 0; i < publishers; i++ {
		go func(n int) {
			defer wg.Done()
			hub.Publish(EventEntryUpdated, "ring", map[string]int{"n": n})
		}(i)
	}

	received := 0
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for received < publishers {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read after %d events: %v", received, err)
		}
		if event.Type != EventEntryUpdated {
			t.Errorf("event type = %q", event.Type)
		}
		received++
	}
	wg.Wait()

	if hub.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.ClientCount())
	}
}

func TestRemoveOnReadError(t *testing.T) {
	hub := NewHub()
	conn, server := dialHub(t, hub)
	defer server.Close()

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
