package sink

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
)

const maxLine = 4 << 20

// Scan calls fn for every non-blank line of a stream file. Iteration stops
// at the first error returned by fn.
func Scan(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer gz.Close()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s line %d: %w", path, n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// ReadAll returns every record of a stream file as raw JSON.
func ReadAll(path string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	err := Scan(path, func(line []byte) error {
		if !json.Valid(line) {
			return fmt.Errorf("invalid JSON")
		}
		out = append(out, json.RawMessage(bytes.Clone(line)))
		return nil
	})
	return out, err
}

// ScanRecords decodes every line of path into a map and calls fn with it.
func ScanRecords(path string, fn func(rec map[string]any) error) error {
	return Scan(path, func(line []byte) error {
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		return fn(rec)
	})
}
