// Package recorder coordinates writing a BLE EEG session to disk: two
// append-only staged CSV files (samples and annotations), finalized into a
// single EDF+ file when recording stops.
package recorder

import (
	"encoding/csv"
	"errors"
	"os"
)

// ErrAlreadyWriting and ErrNotWriting guard the shared row-writer lifecycle
// both the data and annotation writers embed.
var (
	ErrAlreadyWriting = errors.New("recorder: writer already started")
	ErrNotWriting     = errors.New("recorder: writer not started")
)

// rowWriter is a small shared helper for an append-only CSV file: start
// writes the header row, append writes data rows, stop flushes and closes.
// Both the data writer and the annotations writer embed one rather than
// duplicating this bookkeeping.
type rowWriter struct {
	path    string
	file    *os.File
	w       *csv.Writer
	writing bool
}

func (r *rowWriter) start(path string, header []string) error {
	if r.writing {
		return ErrAlreadyWriting
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	r.path, r.file, r.w, r.writing = path, f, w, true
	return nil
}

func (r *rowWriter) append(rows [][]string) error {
	if !r.writing {
		return ErrNotWriting
	}
	for _, row := range rows {
		if err := r.w.Write(row); err != nil {
			return err
		}
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *rowWriter) stop() error {
	if !r.writing {
		return ErrNotWriting
	}
	r.w.Flush()
	err := r.file.Close()
	r.writing = false
	return err
}
