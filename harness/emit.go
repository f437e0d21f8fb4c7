package harness

import (
	"encoding/json"
	"fmt"
	"io"
)

type flusher interface {
	Flush() error
}

// Emitter writes results as newline-delimited JSON, one record per
// line, flushing after every record so consumers can stream them.
type Emitter struct {
	w   io.Writer
	enc *json.Encoder
}

// NewEmitter creates an Emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return &Emitter{w: w, enc: enc}
}

// Emit stamps the identifying fields onto res and writes it.
func (e *Emitter) Emit(res *Result, library, format, file, operation string) error {
	res.Library = library
	res.Format = format
	res.File = file
	res.Operation = operation

	if res.Times == nil {
		res.Times = []float64{}
	}

	if err := e.enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if f, ok := e.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush result: %w", err)
		}
	}

	return nil
}
