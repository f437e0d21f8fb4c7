package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// IDCode returns the identifier code for the i-th variable using the
// printable characters '!' through '~'.
func IDCode(i int) string {
	var code []byte
	for i >= 0 {
		code = append(code, byte('!'+i%94))
		i = i/94 - 1
	}

	return string(code)
}

// Writer emits a VCD trace. Write errors are sticky and reported by
// every later call and by Flush.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024)}
}

// WriteHeader writes the declaration section for h, opening and
// closing scopes as the variables' scope paths change.
func (w *Writer) WriteHeader(h *Header) error {
	if h.Date != "" {
		fmt.Fprintf(w.bw, "$date %s $end\n", h.Date)
	}
	if h.Version != "" {
		fmt.Fprintf(w.bw, "$version %s $end\n", h.Version)
	}
	if h.Timescale != "" {
		fmt.Fprintf(w.bw, "$timescale %s $end\n", h.Timescale)
	}
	for _, c := range h.Comments {
		fmt.Fprintf(w.bw, "$comment %s $end\n", c)
	}

	var open []string

	for _, v := range h.Vars {
		common := 0
		for common < len(open) && common < len(v.Scope) &&
			open[common] == v.Scope[common] {
			common++
		}

		for range open[common:] {
			w.bw.WriteString("$upscope $end\n")
		}
		open = open[:common]

		for _, name := range v.Scope[common:] {
			fmt.Fprintf(w.bw, "$scope module %s $end\n", name)
			open = append(open, name)
		}

		fmt.Fprintf(w.bw, "$var %s %d %s %s $end\n",
			v.Type, v.Size, v.Code, v.Reference)
	}

	for range open {
		w.bw.WriteString("$upscope $end\n")
	}

	_, err := w.bw.WriteString("$enddefinitions $end\n")

	return err
}

// Timestamp starts a new simulation time.
func (w *Writer) Timestamp(t uint64) error {
	w.bw.WriteByte('#')
	w.bw.WriteString(strconv.FormatUint(t, 10))
	_, err := w.bw.WriteString("\n")

	return err
}

// Scalar writes a single-bit change; v is one of 0, 1, x or z.
func (w *Writer) Scalar(code string, v byte) error {
	w.bw.WriteByte(v)
	w.bw.WriteString(code)
	_, err := w.bw.WriteString("\n")

	return err
}

// Vector writes a multi-bit change in binary.
func (w *Writer) Vector(code string, v uint64) error {
	w.bw.WriteByte('b')
	w.bw.WriteString(strconv.FormatUint(v, 2))
	w.bw.WriteByte(' ')
	w.bw.WriteString(code)
	_, err := w.bw.WriteString("\n")

	return err
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
