package recorder

import (
	"strconv"
	"time"
)

var annotationHeader = []string{"time", "text"}

// annotationsWriter appends timestamped annotation rows to a staged CSV
// file, with elapsed time measured from the recording's start time.
type annotationsWriter struct {
	rowWriter
	startTime time.Time
	clock     func() time.Time
}

func newAnnotationsWriter(path string, start time.Time) (*annotationsWriter, error) {
	w := &annotationsWriter{startTime: start, clock: time.Now}
	if err := w.start(path, annotationHeader); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *annotationsWriter) appendAnnotation(text string) error {
	elapsed := w.clock().Sub(w.startTime).Seconds()
	return w.append([][]string{{strconv.FormatFloat(elapsed, 'f', -1, 64), text}})
}
