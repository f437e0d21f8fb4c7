// Package vcd reads and writes Value Change Dump traces as a token
// stream, without building an in-memory waveform.
package vcd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoDefinitions is returned when the input ends before
// $enddefinitions.
var ErrNoDefinitions = errors.New("vcd: missing $enddefinitions")

// maxToken bounds a single whitespace-separated token, which for wide
// vectors can be long.
const maxToken = 1 << 20

// Var is a variable declared in the header.
type Var struct {
	Type      string
	Size      int
	Code      string
	Reference string
	Scope     []string
}

// Header is the declaration section of a trace.
type Header struct {
	Date      string
	Version   string
	Timescale string
	Comments  []string
	Vars      []Var
}

// Codes returns the identifier codes of the first n variables, or of
// all variables when n <= 0. Aliased codes are reported once.
func (h *Header) Codes(n int) []string {
	seen := make(map[string]struct{}, len(h.Vars))
	codes := make([]string, 0, len(h.Vars))

	for _, v := range h.Vars {
		if n > 0 && len(codes) == n {
			break
		}
		if _, ok := seen[v.Code]; ok {
			continue
		}
		seen[v.Code] = struct{}{}
		codes = append(codes, v.Code)
	}

	return codes
}

// Kind distinguishes the commands of the value section.
type Kind uint8

const (
	Timestamp Kind = iota + 1
	ScalarChange
	VectorChange
	RealChange
	StringChange
)

// Command is a single entry of the value section. Time is set for
// Timestamp; Code and Value for the change kinds.
type Command struct {
	Kind  Kind
	Time  uint64
	Code  string
	Value string
}

// Reader tokenizes a VCD stream.
type Reader struct {
	sc     *bufio.Scanner
	tokens int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxToken)
	sc.Split(bufio.ScanWords)

	return &Reader{sc: sc}
}

// ReadHeader consumes the declaration section up to and including
// $enddefinitions $end.
func (r *Reader) ReadHeader() (*Header, error) {
	h := &Header{}

	var scope []string

	for {
		tok, err := r.token()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoDefinitions
		}
		if err != nil {
			return nil, err
		}

		switch tok {
		case "$date":
			h.Date, err = r.text()
		case "$version":
			h.Version, err = r.text()
		case "$timescale":
			h.Timescale, err = r.text()
		case "$comment":
			var c string
			c, err = r.text()
			h.Comments = append(h.Comments, c)
		case "$scope":
			var words []string
			words, err = r.words()
			if err == nil {
				if len(words) < 2 {
					return nil, r.errorf("malformed $scope")
				}
				scope = append(scope, words[1])
			}
		case "$upscope":
			_, err = r.words()
			if len(scope) > 0 {
				scope = scope[:len(scope)-1]
			}
		case "$var":
			var v Var
			v, err = r.variable(scope)
			h.Vars = append(h.Vars, v)
		case "$enddefinitions":
			if _, err = r.words(); err != nil {
				return nil, err
			}

			return h, nil
		default:
			return nil, r.errorf("unexpected %q in header", tok)
		}

		if err != nil {
			return nil, err
		}
	}
}

func (r *Reader) variable(scope []string) (Var, error) {
	words, err := r.words()
	if err != nil {
		return Var{}, err
	}
	if len(words) < 4 {
		return Var{}, r.errorf("malformed $var")
	}

	size, err := strconv.Atoi(words[1])
	if err != nil {
		return Var{}, r.errorf("bad $var size %q", words[1])
	}

	return Var{
		Type:      words[0],
		Size:      size,
		Code:      words[2],
		Reference: strings.Join(words[3:], " "),
		Scope:     append([]string(nil), scope...),
	}, nil
}

// Next returns the next command of the value section, or io.EOF when
// the stream is exhausted.
func (r *Reader) Next() (Command, error) {
	for {
		tok, err := r.token()
		if err != nil {
			return Command{}, err
		}

		switch c := tok[0]; {
		case c == '#':
			t, err := strconv.ParseUint(tok[1:], 10, 64)
			if err != nil {
				return Command{}, r.errorf("bad timestamp %q", tok)
			}

			return Command{Kind: Timestamp, Time: t}, nil

		case tok == "$comment":
			if _, err := r.text(); err != nil {
				return Command{}, err
			}

		case c == '$':
			// $dumpvars, $dumpall, $dumpon, $dumpoff and their $end.

		case c == 'b' || c == 'B':
			return r.change(VectorChange, tok[1:])
		case c == 'r' || c == 'R':
			return r.change(RealChange, tok[1:])
		case c == 's' || c == 'S':
			return r.change(StringChange, tok[1:])

		case isScalar(c):
			if len(tok) < 2 {
				return Command{}, r.errorf("scalar change %q without code", tok)
			}

			return Command{Kind: ScalarChange, Code: tok[1:], Value: tok[:1]}, nil

		default:
			return Command{}, r.errorf("unexpected %q", tok)
		}
	}
}

func (r *Reader) change(kind Kind, value string) (Command, error) {
	code, err := r.token()
	if errors.Is(err, io.EOF) {
		return Command{}, r.errorf("value %q without code: %w", value, io.ErrUnexpectedEOF)
	}
	if err != nil {
		return Command{}, err
	}

	return Command{Kind: kind, Code: code, Value: value}, nil
}

func isScalar(c byte) bool {
	return strings.IndexByte("01xXzZuUwWlLhH-", c) >= 0
}

func (r *Reader) token() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", fmt.Errorf("vcd: read: %w", err)
		}

		return "", io.EOF
	}
	r.tokens++

	return r.sc.Text(), nil
}

// words collects the tokens up to the next $end.
func (r *Reader) words() ([]string, error) {
	var words []string

	for {
		tok, err := r.token()
		if errors.Is(err, io.EOF) {
			return nil, r.errorf("missing $end: %w", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return nil, err
		}
		if tok == "$end" {
			return words, nil
		}
		words = append(words, tok)
	}
}

func (r *Reader) text() (string, error) {
	words, err := r.words()
	if err != nil {
		return "", err
	}

	return strings.Join(words, " "), nil
}

func (r *Reader) errorf(format string, args ...any) error {
	return fmt.Errorf("vcd: token %d: %w", r.tokens, fmt.Errorf(format, args...))
}
