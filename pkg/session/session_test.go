package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
	"github.com/dbehnke/neuroplay-go/pkg/model"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	desc, err := model.ParseDescriptor("NeuroPlay-8Cap (1)", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	return New(desc, nil, logger.New(logger.Config{Level: "error"}))
}

func TestNewBuildsOneChainPerChannel(t *testing.T) {
	s := newTestSession(t)
	if len(s.chains) != 8 {
		t.Fatalf("len(chains) = %d, want 8", len(s.chains))
	}
}

func TestDisconnectWithoutConnectFails(t *testing.T) {
	s := newTestSession(t)
	if err := s.Disconnect(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestHandleRowJoinsRawAndFilteredHandlers(t *testing.T) {
	s := newTestSession(t)

	var mu sync.Mutex
	var rawCalled, filteredCalled bool

	s.RawHandler = func(sample []float64) {
		mu.Lock()
		rawCalled = true
		mu.Unlock()
	}
	s.FilteredHandler = func(sample []float64) {
		mu.Lock()
		filteredCalled = true
		mu.Unlock()
	}

	s.handleRow(make([]float64, 8))

	mu.Lock()
	defer mu.Unlock()
	if !rawCalled || !filteredCalled {
		t.Fatalf("rawCalled=%v filteredCalled=%v, want both true", rawCalled, filteredCalled)
	}
}

func TestFilterRowPreservesChannelCount(t *testing.T) {
	s := newTestSession(t)
	out := s.filterRow(make([]float64, 8))
	if len(out) != 8 {
		t.Fatalf("len(out) = %d, want 8", len(out))
	}
}
