package recorder

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EDF+ layout constants. One data record covers one second; every EEG
// channel carries fs samples per record and a dedicated "EDF Annotations"
// channel carries a Time-stamped Annotations List (TAL) per record.
const (
	annotationLabel            = "EDF Annotations"
	annotationSamplesPerRecord = 60 // 120 bytes/record reserved for the TAL channel

	physicalMin = -10000.0
	physicalMax = 10000.0
	digitalMin  = -32768
	digitalMax  = 32767
)

// ErrMalformedAnnotations is returned when the staged annotations CSV
// can't be parsed into (time, text) rows.
var ErrMalformedAnnotations = errors.New("recorder: malformed annotations csv")

type annotation struct {
	time float64
	text string
}

// FinalizeEDF reads the staged data and (if present) annotations CSVs
// written during a recording session and writes a single EDF+ file
// combining them, with one data record per second of recording, using the
// default ±10000 µV physical range.
func FinalizeEDF(edfPath, dataPath, annPath string, fs int) error {
	return finalizeEDF(edfPath, dataPath, annPath, fs, physicalMin, physicalMax)
}

func finalizeEDF(edfPath, dataPath, annPath string, fs int, physMin, physMax float64) error {
	labels, columns, err := readCSVMatrix(dataPath)
	if err != nil {
		return fmt.Errorf("read staged data: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("recorder: staged data has no channels")
	}

	anns, err := readAnnotationsIfPresent(annPath)
	if err != nil {
		return err
	}

	totalSamples := len(columns[0])
	numRecords := totalSamples / fs
	if totalSamples%fs != 0 {
		numRecords++
	}
	if numRecords == 0 {
		numRecords = 1
	}

	f, err := os.Create(edfPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ns := len(labels) + 1
	headerBytes := 256 + ns*256

	if err := writeMainHeader(f, headerBytes, numRecords, ns); err != nil {
		return err
	}
	if err := writeSignalHeaders(f, labels, fs, physMin, physMax); err != nil {
		return err
	}

	for rec := 0; rec < numRecords; rec++ {
		for c := range labels {
			if err := writeDigitalSamples(f, columns[c], rec, fs, physMin, physMax); err != nil {
				return err
			}
		}
		if err := writeAnnotationRecord(f, rec, anns); err != nil {
			return err
		}
	}

	return nil
}

func readCSVMatrix(path string) ([]string, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}

	columns := make([][]float64, len(header))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse sample %q: %w", field, err)
			}
			columns[i] = append(columns[i], v)
		}
	}
	return header, columns, nil
}

func readAnnotationsIfPresent(path string) ([]annotation, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	if _, err := r.Read(); err != nil { // header row
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnnotations, err)
	}

	var anns []annotation
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnnotations, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: expected time,text columns, got %d fields", ErrMalformedAnnotations, len(record))
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnnotations, err)
		}
		anns = append(anns, annotation{time: t, text: record[1]})
	}
	return anns, nil
}

func writeMainHeader(f *os.File, headerBytes, numRecords, ns int) error {
	var buf []byte
	buf = appendField(buf, "0", 8)
	buf = appendField(buf, "X", 80)
	buf = appendField(buf, "X", 80)
	buf = appendField(buf, "01.01.00", 8)
	buf = appendField(buf, "00.00.00", 8)
	buf = appendField(buf, strconv.Itoa(headerBytes), 8)
	buf = appendField(buf, "EDF+C", 44)
	buf = appendField(buf, strconv.Itoa(numRecords), 8)
	buf = appendField(buf, "1", 8)
	buf = appendField(buf, strconv.Itoa(ns), 4)
	_, err := f.Write(buf)
	return err
}

func writeSignalHeaders(f *os.File, labels []string, fs int, physMin, physMax float64) error {
	var buf []byte

	for _, l := range labels {
		buf = appendField(buf, l, 16)
	}
	buf = appendField(buf, annotationLabel, 16)

	for range labels {
		buf = appendField(buf, "", 80)
	}
	buf = appendField(buf, "", 80)

	for range labels {
		buf = appendField(buf, "uV", 8)
	}
	buf = appendField(buf, "", 8)

	for range labels {
		buf = appendField(buf, fmt.Sprintf("%g", physMin), 8)
	}
	buf = appendField(buf, "-1", 8)

	for range labels {
		buf = appendField(buf, fmt.Sprintf("%g", physMax), 8)
	}
	buf = appendField(buf, "1", 8)

	for range labels {
		buf = appendField(buf, strconv.Itoa(digitalMin), 8)
	}
	buf = appendField(buf, strconv.Itoa(digitalMin), 8)

	for range labels {
		buf = appendField(buf, strconv.Itoa(digitalMax), 8)
	}
	buf = appendField(buf, strconv.Itoa(digitalMax), 8)

	for range labels {
		buf = appendField(buf, "", 80)
	}
	buf = appendField(buf, "", 80)

	for range labels {
		buf = appendField(buf, strconv.Itoa(fs), 8)
	}
	buf = appendField(buf, strconv.Itoa(annotationSamplesPerRecord), 8)

	for i := 0; i < len(labels)+1; i++ {
		buf = appendField(buf, "", 32)
	}

	_, err := f.Write(buf)
	return err
}

func appendField(buf []byte, s string, width int) []byte {
	if len(s) > width {
		s = s[:width]
	}
	field := make([]byte, width)
	copy(field, s)
	for i := len(s); i < width; i++ {
		field[i] = ' '
	}
	return append(buf, field...)
}

func writeDigitalSamples(f *os.File, col []float64, rec, fs int, physMin, physMax float64) error {
	buf := make([]byte, fs*2)
	start := rec * fs
	for i := 0; i < fs; i++ {
		var phys float64
		if idx := start + i; idx < len(col) {
			phys = col[idx]
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(physicalToDigital(phys, physMin, physMax))))
	}
	_, err := f.Write(buf)
	return err
}

func physicalToDigital(phys, physMin, physMax float64) int {
	if phys > physMax {
		phys = physMax
	}
	if phys < physMin {
		phys = physMin
	}
	scale := float64(digitalMax-digitalMin) / (physMax - physMin)
	return int((phys-physMin)*scale) + digitalMin
}

func writeAnnotationRecord(f *os.File, rec int, anns []annotation) error {
	buf := make([]byte, annotationSamplesPerRecord*2)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("+%g", float64(rec)))
	sb.WriteByte(0x14)
	sb.WriteByte(0x14)
	sb.WriteByte(0x00)

	for _, a := range anns {
		if int(a.time) != rec {
			continue
		}
		sb.WriteByte('+')
		sb.WriteString(fmt.Sprintf("%g", a.time))
		sb.WriteByte(0x14)
		sb.WriteString(a.text)
		sb.WriteByte(0x14)
		sb.WriteByte(0x00)
	}

	data := []byte(sb.String())
	if len(data) > len(buf) {
		data = data[:len(buf)]
	}
	copy(buf, data)

	_, err := f.Write(buf)
	return err
}
