// Package delim tokenizes delimited text into rows and writes rows back
// joined by the same delimiter.
package delim

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Row is an ordered list of fields.
type Row []string

// ErrNoHeader is returned when the input ends before the first row.
var ErrNoHeader = errors.New("no header row")

// ParseDelimiter turns a flag value into a field separator. Besides a single
// character it accepts `\t` and "tab" for the tab character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character", s)
	}

	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}

	return r, nil
}

// Reader reads rows. Quoted fields may contain the delimiter; rows may have
// differing field counts. A blank line is returned as an empty, non-nil Row.
type Reader struct {
	r     *csv.Reader
	lines *lineCounter
	head  bool

	// last is the input line the previous record ended on; blank counts the
	// empty rows still owed before rec (or err) is handed out.
	last  int
	blank int
	rec   Row
	err   error
}

func NewReader(r io.Reader, comma rune) *Reader {
	lines := &lineCounter{r: r}

	cr := csv.NewReader(lines)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return &Reader{r: cr, lines: lines}
}

// Header reads the first row. It must be called before Next.
func (r *Reader) Header() (Row, error) {
	if r.head {
		return nil, errors.New("header already read")
	}
	r.head = true

	rec, err := r.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	return rec, nil
}

// Next reads the following row; io.EOF marks the end of input.
func (r *Reader) Next() (Row, error) {
	if !r.head {
		return nil, errors.New("next called before header")
	}

	rec, err := r.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read row: %w", err)
	}

	return rec, nil
}

// read wraps csv.Reader, which skips empty lines, and puts them back by
// comparing line numbers of consecutive records.
func (r *Reader) read() (Row, error) {
	if r.blank > 0 {
		r.blank--
		return Row{}, nil
	}
	if r.rec != nil || r.err != nil {
		rec, err := r.rec, r.err
		r.rec, r.err = nil, nil
		return rec, err
	}

	rec, err := r.r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}

		// Everything has been consumed, so trailing blank lines are the
		// difference to the total line count.
		n := r.lines.total() - r.last
		if n <= 0 {
			return nil, io.EOF
		}
		r.last += n
		r.blank = n - 1
		r.err = io.EOF
		return Row{}, nil
	}

	start, _ := r.r.FieldPos(0)
	end, _ := r.r.FieldPos(len(rec) - 1)
	end += strings.Count(rec[len(rec)-1], "\n")

	skipped := start - r.last - 1
	r.last = end
	if skipped > 0 {
		r.blank = skipped - 1
		r.rec = rec
		return Row{}, nil
	}

	return rec, nil
}

// lineCounter counts the lines read through it. A final line without a
// newline counts as well.
type lineCounter struct {
	r    io.Reader
	n    int
	tail byte
	seen bool
}

func (l *lineCounter) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		l.n += bytes.Count(p[:n], []byte{'\n'})
		l.tail = p[n-1]
		l.seen = true
	}
	return n, err
}

func (l *lineCounter) total() int {
	if l.seen && l.tail != '\n' {
		return l.n + 1
	}
	return l.n
}

// Writer writes rows joined by the delimiter, one per line, without quoting.
type Writer struct {
	w   io.Writer
	sep string
	b   strings.Builder
}

func NewWriter(w io.Writer, comma rune) *Writer {
	return &Writer{w: w, sep: string(comma)}
}

func (w *Writer) Write(row Row) error {
	w.b.Reset()
	for i, field := range row {
		if i > 0 {
			w.b.WriteString(w.sep)
		}
		w.b.WriteString(field)
	}
	w.b.WriteByte('\n')

	_, err := io.WriteString(w.w, w.b.String())
	return err
}

// Flush flushes the underlying writer when it buffers.
func (w *Writer) Flush() error {
	if f, ok := w.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Transform rewrites a data row. Returning a nil row drops it.
type Transform func(Row) (Row, error)

// Identity returns the row unchanged.
func Identity(row Row) (Row, error) {
	return row, nil
}

// Stats counts what Copy wrote.
type Stats struct {
	Header int // fields in the header
	Rows   int // data rows, header excluded
}

// Copy writes the header verbatim, then every data row passed through
// transform, and flushes w. Blank lines are copied as they are, without
// calling transform. ctx is checked between rows.
func Copy(ctx context.Context, r *Reader, w *Writer, transform Transform) (Stats, error) {
	var stats Stats

	if transform == nil {
		transform = Identity
	}

	header, err := r.Header()
	if err != nil {
		return stats, err
	}
	stats.Header = len(header)

	if err := w.Write(header); err != nil {
		return stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}

		if len(row) > 0 {
			row, err = transform(row)
			if err != nil {
				return stats, fmt.Errorf("transform row %d: %w", stats.Rows+1, err)
			}
			if row == nil {
				continue
			}
		}

		if err := w.Write(row); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	return stats, w.Flush()
}
