package web

import (
	"testing"
	"time"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub(testLogger())
	for i := 0; i < 256; i++ {
		h.Broadcast(Event{Type: "filler"})
	}
	// Buffer is full; this call must not block.
	done := make(chan struct{})
	go func() {
		h.Broadcast(Event{Type: "overflow"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked instead of dropping")
	}
}

func TestEventMarshalProducesValidJSON(t *testing.T) {
	e := Event{Type: "device_connected", Data: map[string]interface{}{"address": "AA:BB"}}
	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON")
	}
}

func TestClientCountStartsAtZero(t *testing.T) {
	h := NewHub(testLogger())
	if h.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d, want 0", h.ClientCount())
	}
}
