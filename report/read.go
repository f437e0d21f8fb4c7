package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/weiihann/wavebench/harness"
)

// ReadResults decodes a newline-delimited JSON result stream as
// written by harness.Emitter. Blank lines are skipped.
func ReadResults(r io.Reader) ([]harness.Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var (
		results []harness.Result
		line    int
	)

	for sc.Scan() {
		line++

		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var res harness.Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}

		results = append(results, res)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	return results, nil
}
