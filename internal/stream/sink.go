package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"code.selman.me/delimkit/internal/codec"
)

// ErrBrokenPipe is returned once the reader on the other end of the output
// has gone away. The sink is draining from then on.
var ErrBrokenPipe = errors.New("broken pipe")

// IsStdout reports whether name refers to the standard output.
func IsStdout(name string) bool {
	return name == "" || name == "-" || name == "stdout"
}

// IsBrokenPipe reports whether err means the consumer closed its end.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

type sinkState int

const (
	streaming sinkState = iota
	draining
)

// switchWriter forwards to w; the sink points w at io.Discard when draining.
type switchWriter struct {
	w io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Sink is a buffered output stream, optionally compressed, which stops
// failing once its consumer disappears.
//
// Layers, top to bottom: buffer, compressor, switch, target (file or stdout).
type Sink struct {
	Path  string
	Codec codec.Codec

	buf    *bufio.Writer
	enc    io.WriteCloser
	target *switchWriter
	file   io.Closer
	state  sinkState
}

// NewSink returns an uncompressed sink over w. Closing it does not close w.
func NewSink(w io.Writer) *Sink {
	s, _ := newSink("", codec.Plain, w, nil)
	return s
}

func newSink(path string, c codec.Codec, w io.Writer, file io.Closer) (*Sink, error) {
	target := &switchWriter{w: w}
	enc, err := codec.NewWriter(c, target, codec.MemberName(path))
	if err != nil {
		return nil, err
	}

	return &Sink{
		Path:   path,
		Codec:  c,
		buf:    bufio.NewWriter(enc),
		enc:    enc,
		target: target,
		file:   file,
	}, nil
}

// Create resolves name to a writable stream. An empty name, "-" and "stdout"
// write to stdout uncompressed; other names are created (truncated) and
// compressed by suffix.
func Create(name string, stdout io.Writer) (*Sink, error) {
	if IsStdout(name) {
		s := NewSink(stdout)
		s.Path = name
		return s, nil
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	c := codec.ForPath(name)
	s, err := newSink(name, c, f, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create output %v: %w", c, err)
	}

	return s, nil
}

func (s *Sink) Write(p []byte) (int, error) {
	if s.state == draining {
		return len(p), nil
	}

	n, err := s.buf.Write(p)
	if err != nil {
		return n, s.fail(err)
	}

	return n, nil
}

func (s *Sink) WriteString(str string) (int, error) {
	if s.state == draining {
		return len(str), nil
	}

	n, err := s.buf.WriteString(str)
	if err != nil {
		return n, s.fail(err)
	}

	return n, nil
}

// Flush pushes buffered bytes into the compressor (or the target).
func (s *Sink) Flush() error {
	if s.state == draining {
		return nil
	}

	if err := s.buf.Flush(); err != nil {
		return s.fail(err)
	}

	return nil
}

// Draining reports whether the sink has switched to discarding output.
func (s *Sink) Draining() bool {
	return s.state == draining
}

// Drain discards pending output and points the sink at io.Discard.
// Later writes, flushes and Close succeed without reaching the target.
func (s *Sink) Drain() {
	s.state = draining
	s.target.w = io.Discard
	s.buf.Reset(s.enc)
}

func (s *Sink) fail(err error) error {
	if !IsBrokenPipe(err) {
		return err
	}

	s.Drain()
	return fmt.Errorf("%w: %w", ErrBrokenPipe, err)
}

// Close flushes and finishes the compressor, then closes the output file.
// Standard output is not closed.
func (s *Sink) Close() error {
	if s.state == draining {
		_ = s.enc.Close()
		if s.file != nil {
			_ = s.file.Close()
			s.file = nil
		}
		return nil
	}

	err := s.buf.Flush()
	if err == nil {
		err = s.enc.Close()
	}
	if err != nil {
		err = s.fail(err)
		if s.state == draining {
			_ = s.enc.Close()
		}
	}

	if s.file != nil {
		if cerr := s.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.file = nil
	}

	return err
}
