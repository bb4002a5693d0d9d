package bm3d

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zlib"
)

// TraceEvent records one reference anchor's contribution to a pass, for
// offline tuning of lambda3D/sigma without re-running the whole pipeline.
type TraceEvent struct {
	Pass      int     `json:"pass"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	GroupSize int     `json:"group_size"`
	Weight    float64 `json:"weight"`
}

// TraceWriter zlib-compresses a JSON-lines stream of TraceEvents, mirroring
// the teacher's use of klauspost/compress for EXR's ZIP chunk codec
// (compression/zip.go) — here backing an optional diagnostic sink instead
// of pixel data. Close flushes and closes the underlying zlib stream.
type TraceWriter struct {
	zw  *zlib.Writer
	enc *json.Encoder
}

// NewTraceWriter wraps w with a zlib compressor and JSON-lines encoder.
func NewTraceWriter(w io.Writer) *TraceWriter {
	zw := zlib.NewWriter(w)
	return &TraceWriter{zw: zw, enc: json.NewEncoder(zw)}
}

// Write appends one trace event to the compressed stream.
func (t *TraceWriter) Write(ev TraceEvent) error {
	return t.enc.Encode(ev)
}

// Close flushes and closes the zlib stream.
func (t *TraceWriter) Close() error {
	return t.zw.Close()
}

// ReadTraceEvents decompresses and decodes a stream written by TraceWriter.
func ReadTraceEvents(r io.Reader) ([]TraceEvent, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var events []TraceEvent
	dec := json.NewDecoder(zr)
	for {
		var ev TraceEvent
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
