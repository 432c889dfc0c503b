package recorder

import "strconv"

// dataWriter appends fixed-width numeric sample rows to a staged CSV file,
// one column per channel.
type dataWriter struct {
	rowWriter
}

func newDataWriter(path string, channelLabels []string) (*dataWriter, error) {
	w := &dataWriter{}
	if err := w.start(path, channelLabels); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *dataWriter) appendRows(samples [][]float64) error {
	rows := make([][]string, len(samples))
	for i, sample := range samples {
		row := make([]string, len(sample))
		for j, v := range sample {
			row[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		rows[i] = row
	}
	return w.append(rows)
}
