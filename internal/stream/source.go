// Package stream resolves input and output paths to readable and writable
// streams, applying transparent (de)compression chosen by file suffix.
package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"code.selman.me/delimkit/internal/codec"
)

// IsStdin reports whether name refers to the standard input.
func IsStdin(name string) bool {
	return name == "-" || name == "stdin"
}

// ErrNotFile is returned for inputs such as directories that open fine but
// cannot be streamed.
var ErrNotFile = errors.New("not a regular file")

// readable accepts regular files, named pipes and character devices
// (/dev/stdin on a terminal).
func readable(m fs.FileMode) bool {
	return m.IsRegular() || m&(fs.ModeNamedPipe|fs.ModeCharDevice) != 0
}

// OpenError is returned by Open when the input could not be loaded.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("could not load file %q: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Source is an opened input stream.
type Source struct {
	Path  string
	Codec codec.Codec

	r       *countingReader
	closers []io.Closer
}

// Open resolves name to a readable stream. "-" and "stdin" read from stdin
// as is; other names are opened as files and decompressed by suffix.
func Open(name string, stdin io.Reader) (*Source, error) {
	if IsStdin(name) {
		return &Source{
			Path:  name,
			Codec: codec.Plain,
			r:     &countingReader{r: stdin},
		}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, &OpenError{Path: name, Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: name, Err: err}
	}
	if !readable(fi.Mode()) {
		_ = f.Close()
		return nil, &OpenError{Path: name, Err: fmt.Errorf("%w: %v", ErrNotFile, fi.Mode().Type())}
	}

	c := codec.ForPath(name)
	dec, err := codec.NewReader(c, f)
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: name, Err: fmt.Errorf("%v: %w", c, err)}
	}

	return &Source{
		Path:    name,
		Codec:   c,
		r:       &countingReader{r: dec},
		closers: []io.Closer{dec, f},
	}, nil
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// BytesRead is the number of decoded bytes handed out so far.
func (s *Source) BytesRead() int64 {
	return s.r.n
}

// Close releases the decompressor and then the file. Standard input is left open.
func (s *Source) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil

	return errors.Join(errs...)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
