// Package csvfile appends output rows to a delimited text file.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

// Writer appends one line per call to an output file. It is not safe for concurrent use.
type Writer struct {
	file    *os.File
	layout  Layout
	fresh   bool
	closed  bool
	lineBuf bytes.Buffer
	lineCSV *csv.Writer
	rows    uint64
}

// Open creates or truncates path, or appends to it when appendMode is set.
func Open(path string, layout Layout, appendMode bool) (*Writer, error) {
	if path == "" {
		return nil, errors.New("output path is required")
	}
	flag := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat output %s: %w", path, err)
	}

	w := &Writer{
		file:   f,
		layout: layout,
		fresh:  info.Size() == 0,
	}
	w.lineCSV = csv.NewWriter(&w.lineBuf)
	w.lineCSV.Comma = layout.Delimiter
	return w, nil
}

// WriteHeader writes the column names as the first line. It is a no-op when
// appending to a file that already has content.
func (w *Writer) WriteHeader(columns []string) error {
	if len(columns) != len(w.layout.Columns) {
		return fmt.Errorf("header has %d columns, layout %s has %d", len(columns), w.layout.Name, len(w.layout.Columns))
	}
	if !w.fresh {
		return nil
	}
	if err := w.writeLine(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.fresh = false
	return nil
}

// AppendRow formats row and writes it with a single write call.
func (w *Writer) AppendRow(row model.OutputRow) error {
	if err := w.writeLine(w.layout.Fields(row)); err != nil {
		return fmt.Errorf("append row for block %d: %w", row.BlockNumber, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows appended by this writer.
func (w *Writer) Rows() uint64 {
	return w.rows
}

func (w *Writer) writeLine(fields []string) error {
	if w.closed {
		return os.ErrClosed
	}
	w.lineBuf.Reset()
	if err := w.lineCSV.Write(fields); err != nil {
		return err
	}
	w.lineCSV.Flush()
	if err := w.lineCSV.Error(); err != nil {
		return err
	}
	_, err := w.file.Write(w.lineBuf.Bytes())
	return err
}

// Close flushes file contents to stable storage and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	return errors.Join(syncErr, closeErr)
}
