package mutation

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"
)

// LogWriter is a Sink that appends each stream to w as one line of JSON.
type LogWriter struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

// NewLogWriter writes streams to w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: w}
}

// Apply encodes m and writes it followed by a newline.
func (l *LogWriter) Apply(m *Mutations) error {
	doc, err := EncodeJSON(m)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(doc, '\n')); err != nil {
		return err
	}
	l.n++
	return nil
}

// Written returns the number of streams written.
func (l *LogWriter) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// ReadLog decodes a log written by LogWriter. Blank lines are skipped.
func ReadLog(r io.Reader) ([]*Mutations, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var out []*Mutations
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		m, err := DecodeJSON(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
