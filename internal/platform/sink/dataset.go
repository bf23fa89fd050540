// Package sink writes record streams as gzip-compressed JSON Lines files
// and reads them back.
package sink

import (
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
)

// Ext is the file suffix of every stream.
const Ext = ".jsonl.gz"

var (
	ErrUnknownStream = errors.New("unknown stream")
	ErrClosed        = errors.New("dataset closed")
)

// FileName returns the file name of stream.
func FileName(stream string) string { return stream + Ext }

// Path returns the file path of stream inside dir.
func Path(dir, stream string) string { return filepath.Join(dir, FileName(stream)) }

type stream struct {
	name    string
	file    *os.File
	buf     *bufio.Writer
	gz      *gzip.Writer
	sum     hash.Hash
	records int64
}

// Dataset is a set of open output streams in one directory. It is not safe
// for concurrent use.
type Dataset struct {
	dir     string
	order   []string
	streams map[string]*stream
	closed  bool
}

// Open creates dir if needed and one stream file per name, truncating any
// previous content.
func Open(dir string, names ...string) (*Dataset, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	d := &Dataset{dir: dir, streams: make(map[string]*stream, len(names))}
	for _, name := range names {
		if _, dup := d.streams[name]; dup {
			continue
		}
		f, err := os.Create(Path(dir, name))
		if err != nil {
			d.abort()
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		sum := sha256.New()
		buf := bufio.NewWriterSize(io.MultiWriter(f, sum), 256<<10)
		// A zero Header leaves mtime and name empty so output bytes depend
		// only on the records.
		gz, _ := gzip.NewWriterLevel(buf, gzip.DefaultCompression)
		d.streams[name] = &stream{name: name, file: f, buf: buf, gz: gz, sum: sum}
		d.order = append(d.order, name)
	}
	return d, nil
}

// Dir is the output directory.
func (d *Dataset) Dir() string { return d.dir }

// Append writes record as one canonical JSON line to the named stream.
func (d *Dataset) Append(name string, record any) error {
	if d.closed {
		return ErrClosed
	}
	s, ok := d.streams[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStream, name)
	}
	line, err := Canonical(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", name, err)
	}
	line = append(line, '\n')
	if _, err := s.gz.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.records++
	return nil
}

// Counts returns the number of records appended per stream.
func (d *Dataset) Counts() map[string]int64 {
	out := make(map[string]int64, len(d.streams))
	for name, s := range d.streams {
		out[name] = s.records
	}
	return out
}

// Close flushes and closes every stream and returns the first error. It
// returns the per-stream file summaries once the files are complete.
func (d *Dataset) Close() ([]StreamInfo, error) {
	if d.closed {
		return nil, ErrClosed
	}
	d.closed = true

	var first error
	infos := make([]StreamInfo, 0, len(d.order))
	for _, name := range d.order {
		s := d.streams[name]
		err := s.gz.Close()
		if err == nil {
			err = s.buf.Flush()
		}
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			if first == nil {
				first = fmt.Errorf("close %s: %w", name, err)
			}
			continue
		}
		infos = append(infos, StreamInfo{
			Name:    name,
			File:    FileName(name),
			Records: s.records,
			SHA256:  hex.EncodeToString(s.sum.Sum(nil)),
		})
	}
	if first != nil {
		return nil, first
	}
	return infos, nil
}

func (d *Dataset) abort() {
	for _, s := range d.streams {
		s.file.Close()
	}
	d.closed = true
}
