package recorder

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

func newTestCoordinator(t *testing.T, fs int) (*Coordinator, string) {
	t.Helper()
	dir := t.TempDir()
	log := logger.New(logger.Config{Level: "error"})
	return New(fs, []string{"O1", "O2"}, log), filepath.Join(dir, "session.edf")
}

func TestStartStopLifecycleErrors(t *testing.T) {
	c, edfPath := newTestCoordinator(t, 4)

	if err := c.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Stop before Start: err = %v, want ErrNotRecording", err)
	}

	if err := c.Start(edfPath); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(edfPath); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start: err = %v, want ErrAlreadyRecording", err)
	}

	for i := 0; i < 4; i++ {
		if err := c.WriteData([]float64{float64(i), float64(-i)}); err != nil {
			t.Fatalf("WriteData: %v", err)
		}
	}
	if err := c.WriteAnnotation("blink"); err != nil {
		t.Fatalf("WriteAnnotation: %v", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := os.Stat(edfPath); err != nil {
		t.Fatalf("expected EDF file at %s: %v", edfPath, err)
	}
}

func TestWriteAnnotationFailsWhenNotRecording(t *testing.T) {
	c, _ := newTestCoordinator(t, 4)
	if err := c.WriteAnnotation("x"); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("err = %v, want ErrNotRecording", err)
	}
}

func TestOnStartAndOnStopCallbacksFire(t *testing.T) {
	c, edfPath := newTestCoordinator(t, 2)

	var started, stopped bool
	c.OnStart(func() { started = true })
	c.OnStop(func() { stopped = true })

	if err := c.Start(edfPath); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !started {
		t.Error("expected OnStart callback to fire")
	}

	c.WriteData([]float64{1, 1})
	c.WriteData([]float64{1, 1})

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopped {
		t.Error("expected OnStop callback to fire")
	}
}

func TestSetFlushEveryOverridesDefaultBatchSize(t *testing.T) {
	c, edfPath := newTestCoordinator(t, 125)
	c.SetFlushEvery(2)

	if err := c.Start(edfPath); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.WriteData([]float64{1, 1})
	c.WriteData([]float64{2, 2})

	c.mu.Lock()
	bufLen := len(c.buffer)
	c.mu.Unlock()
	if bufLen != 0 {
		t.Fatalf("buffer len = %d, want 0 after flushing at the overridden batch size", bufLen)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSetPhysicalRangeIgnoresInvertedBounds(t *testing.T) {
	c, _ := newTestCoordinator(t, 4)
	c.SetPhysicalRange(100, -100)

	c.mu.Lock()
	min, max := c.physicalMin, c.physicalMax
	c.mu.Unlock()
	if min != physicalMin || max != physicalMax {
		t.Fatalf("physical range = [%v, %v], want default [%v, %v] preserved", min, max, physicalMin, physicalMax)
	}
}

func TestFinalizeEDFRoundTripsSampleValues(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")
	edfPath := filepath.Join(dir, "out.edf")

	const fs = 4
	want := [][]float64{
		{100, -100, 50, 0},
		{5000, -5000, 0, 1},
	}
	if err := os.WriteFile(dataPath, []byte("O1,O2\n100,5000\n-100,-5000\n50,0\n0,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := FinalizeEDF(edfPath, dataPath, filepath.Join(dir, "annotations.csv"), fs); err != nil {
		t.Fatalf("FinalizeEDF: %v", err)
	}

	f, err := os.Open(edfPath)
	if err != nil {
		t.Fatalf("open edf: %v", err)
	}
	defer f.Close()

	const ns = 3 // 2 EEG channels + the EDF Annotations channel
	headerBytes := int64(256 + ns*256)
	if _, err := f.Seek(headerBytes, io.SeekStart); err != nil {
		t.Fatalf("seek past header: %v", err)
	}

	quantStep := (physicalMax - physicalMin) / 65535.0
	buf := make([]byte, fs*2)
	for c := 0; c < 2; c++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			t.Fatalf("read channel %d samples: %v", c, err)
		}
		for i := 0; i < fs; i++ {
			digital := int16(binary.LittleEndian.Uint16(buf[i*2:]))
			scale := (physicalMax - physicalMin) / float64(digitalMax-digitalMin)
			phys := (float64(digital)-digitalMin)*scale + physicalMin
			if diff := phys - want[c][i]; diff > quantStep*2 || diff < -quantStep*2 {
				t.Errorf("channel %d sample %d = %v, want ~%v (quantization step %v)", c, i, phys, want[c][i], quantStep)
			}
		}
	}
}

func TestFinalizeEDFRejectsMalformedAnnotations(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")
	annPath := filepath.Join(dir, "annotations.csv")
	edfPath := filepath.Join(dir, "out.edf")

	if err := os.WriteFile(dataPath, []byte("O1,O2\n1,2\n3,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(annPath, []byte("time,text\nnot-a-number,blink\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := FinalizeEDF(edfPath, dataPath, annPath, 2)
	if !errors.Is(err, ErrMalformedAnnotations) {
		t.Fatalf("err = %v, want ErrMalformedAnnotations", err)
	}
}
