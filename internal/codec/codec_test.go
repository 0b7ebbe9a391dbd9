package codec

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForPath(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		path     string
		expected Codec
	}{
		{path: "data.tsv", expected: Plain},
		{path: "data", expected: Plain},
		{path: "data.tsv.gz", expected: Gzip},
		{path: "data.tsv.bz2", expected: Bzip2},
		{path: "data.zip", expected: Zip},
		{path: "data.tsv.zst", expected: Zstd},
		{path: "data.tsv.lz4", expected: LZ4},
		{path: "data.tsv.sz", expected: Snappy},
		{path: "data.GZ", expected: Plain},
		{path: "dir.gz/data", expected: Plain},
		{path: "./data", expected: Plain},
		{path: "gz", expected: Plain},
	}

	for _, tc := range testcases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			if got := ForPath(tc.path); got != tc.expected {
				t.Errorf("ForPath(%q) = %v, want %v", tc.path, got, tc.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("id\tname\tscore\n1\tada\t10\n2\tgrace\t12\n", 200)

	for _, c := range []Codec{Plain, Gzip, Bzip2, Zip, Zstd, LZ4, Snappy} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := NewWriter(c, &buf, "data.tsv")
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			if _, err := io.WriteString(w, payload); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("close writer: %v", err)
			}

			r, err := NewReader(c, bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("read: %v", err)
			}

			if diff := cmp.Diff(payload, string(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZipFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rows.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWriter(Zip, f, MemberName(path))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "a,b\n1,2\n"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	r, err := NewReader(Zip, in)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("a,b\n1,2\n", string(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestZipNeedsRandomAccess(t *testing.T) {
	t.Parallel()

	_, err := NewReader(Zip, io.MultiReader(strings.NewReader("PK")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("NewReader error = %v, want %v", err, ErrUnsupported)
	}
}

func TestGzipCorruptHeader(t *testing.T) {
	t.Parallel()

	_, err := NewReader(Gzip, strings.NewReader("not gzip at all"))
	if err == nil {
		t.Error("NewReader on plain text with Gzip: want error, got nil")
	}
}

func TestMemberName(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		path     string
		expected string
	}{
		{path: "out.tsv.zip", expected: "out.tsv"},
		{path: "/tmp/x/rows.zip", expected: "rows"},
		{path: ".zip", expected: "data"},
		{path: "plain", expected: "plain"},
	}

	for _, tc := range testcases {
		if got := MemberName(tc.path); got != tc.expected {
			t.Errorf("MemberName(%q) = %q, want %q", tc.path, got, tc.expected)
		}
	}
}
