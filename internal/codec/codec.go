// Package codec maps file name suffixes to stream compression formats and
// builds the matching readers and writers.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// Codec is a stream compression format.
type Codec int

const (
	Plain Codec = iota
	Gzip
	Bzip2
	Zip
	Zstd
	LZ4
	Snappy
)

// ErrUnsupported is returned when a codec cannot operate on the given stream,
// e.g. a zip archive that is not backed by a seekable file.
var ErrUnsupported = errors.New("unsupported stream for codec")

// ErrEmptyArchive is returned when a zip archive holds no regular file.
var ErrEmptyArchive = errors.New("zip archive has no file member")

var suffixes = map[string]Codec{
	"gz":  Gzip,
	"bz2": Bzip2,
	"zip": Zip,
	"zst": Zstd,
	"lz4": LZ4,
	"sz":  Snappy,
}

// ForPath picks the codec from the text after the last dot of path.
// Matching is case sensitive and never looks at the content.
func ForPath(path string) Codec {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return Plain
	}

	if c, ok := suffixes[path[i+1:]]; ok {
		return c
	}

	return Plain
}

func (c Codec) String() string {
	switch c {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Zip:
		return "zip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// NewReader wraps r with a decompressor for c. Closing the returned reader
// releases the decompressor only; r stays open.
//
// Zip needs random access: r must be an *os.File or provide ReadAt and Size
// (bytes.Reader, strings.Reader). The first regular file member is read.
func NewReader(c Codec, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case Plain:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Bzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, err
		}
		return br, nil
	case Zip:
		return openFirstMember(r)
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, c)
	}
}

// NewWriter wraps w with a compressor for c. Close flushes the compressor
// without closing w. For Zip, member names the single archive entry.
func NewWriter(c Codec, w io.Writer, member string) (io.WriteCloser, error) {
	switch c {
	case Plain:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Bzip2:
		bw, err := bzip2.NewWriter(w, nil)
		if err != nil {
			return nil, err
		}
		return bw, nil
	case Zip:
		return createSingleMember(w, member)
	case Zstd:
		e, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return e, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

func openFirstMember(r io.Reader) (io.ReadCloser, error) {
	var (
		ra   io.ReaderAt
		size int64
	)

	switch v := r.(type) {
	case *os.File:
		fi, err := v.Stat()
		if err != nil {
			return nil, err
		}
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: zip from %v", ErrUnsupported, fi.Mode().Type())
		}
		ra, size = v, fi.Size()
	case sizedReaderAt:
		ra, size = v, v.Size()
	default:
		return nil, fmt.Errorf("%w: zip needs a seekable file", ErrUnsupported)
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if !f.Mode().IsRegular() {
			continue
		}
		return f.Open()
	}

	return nil, ErrEmptyArchive
}

type zipMemberWriter struct {
	io.Writer
	zw *zip.Writer
}

func (z *zipMemberWriter) Close() error { return z.zw.Close() }

func createSingleMember(w io.Writer, member string) (io.WriteCloser, error) {
	zw := zip.NewWriter(w)
	mw, err := zw.Create(member)
	if err != nil {
		return nil, err
	}

	return &zipMemberWriter{Writer: mw, zw: zw}, nil
}

// MemberName derives the archive entry name for a zip output path.
func MemberName(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	name := strings.TrimSuffix(base, ".zip")
	if name == "" {
		return "data"
	}

	return name
}
