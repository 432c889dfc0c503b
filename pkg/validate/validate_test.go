package validate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// feedUntil pumps the given row into v until stop is closed, so the
// accumulation window fills no matter when Validate flips the
// accumulating flag on.
func feedUntil(v *Validator, row []float64, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}
		v.Feed(row)
		time.Sleep(time.Millisecond)
	}
}

func TestValidateClassifiesEachChannel(t *testing.T) {
	const fs = 10
	v := New(fs, []string{"a", "b", "c"})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go feedUntil(v, []float64{100, 500, 2000}, stop, &wg)

	result, err := v.Validate(context.Background(), func() bool { return true })
	close(stop)
	wg.Wait()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := map[string]Status{"a": Valid, "b": Warn, "c": NotValid}
	for label, status := range want {
		if result[label] != status {
			t.Errorf("result[%q] = %v, want %v", label, result[label], status)
		}
	}
}

func TestValidateBoundaryThresholds(t *testing.T) {
	const fs = 4
	v := New(fs, []string{"at250", "above250", "at1000", "above1000"})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go feedUntil(v, []float64{250, -251, -1000, 1001}, stop, &wg)

	result, err := v.Validate(context.Background(), func() bool { return true })
	close(stop)
	wg.Wait()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := map[string]Status{"at250": Valid, "above250": Warn, "at1000": Warn, "above1000": NotValid}
	for label, status := range want {
		if result[label] != status {
			t.Errorf("result[%q] = %v, want %v", label, result[label], status)
		}
	}
}

func TestValidateFailsWhenNotConnected(t *testing.T) {
	v := New(10, []string{"a"})
	_, err := v.Validate(context.Background(), func() bool { return false })
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if v.BufferLen() != 0 {
		t.Fatalf("buffer opened despite disconnected precondition")
	}
}

func TestValidateTimesOutWithoutEnoughSamples(t *testing.T) {
	v := New(10, []string{"a"})
	v.timeout = 20 * time.Millisecond

	_, err := v.Validate(context.Background(), func() bool { return true })
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestValidateDetectsDisconnectDuringAccumulation(t *testing.T) {
	const fs = 10
	v := New(fs, []string{"a"})

	// Connected for the precondition check, gone by the post-accumulation
	// recheck.
	var calls atomic.Int32
	connected := func() bool { return calls.Add(1) == 1 }

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go feedUntil(v, []float64{1}, stop, &wg)

	_, err := v.Validate(context.Background(), connected)
	close(stop)
	wg.Wait()
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}
