package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"code.selman.me/delimkit/internal/delim"
	"code.selman.me/delimkit/internal/stream"
)

func TestRecords(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name     string
		input    string
		expected []map[string]string
	}{
		{
			name:  "full rows",
			input: "id\tname\n1\tada\n2\tgrace\n",
			expected: []map[string]string{
				{"id": "1", "name": "ada"},
				{"id": "2", "name": "grace"},
			},
		},
		{
			name:  "short and long rows",
			input: "a\tb\tc\n1\n1\t2\t3\t4\n",
			expected: []map[string]string{
				{"a": "1", "b": "", "c": ""},
				{"a": "1", "b": "2", "c": "3"},
			},
		},
		{
			name:  "blank lines skipped",
			input: "k\tv\n\nx\ty\n\n",
			expected: []map[string]string{
				{"k": "x", "v": "y"},
			},
		},
		{
			name:     "header only",
			input:    "a\tb\n",
			expected: []map[string]string{},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := records(context.Background(), delim.NewReader(strings.NewReader(tc.input), '\t'))
			if err != nil {
				t.Fatalf("records: %v", err)
			}

			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRealMain(t *testing.T) {
	t.Parallel()

	var stdout strings.Builder
	err := realMain(
		context.Background(),
		strings.NewReader("name,score\nada,10\n"),
		&stdout,
		[]string{"delim2json", "-d", ",", "-compact"},
	)
	if err != nil {
		t.Fatalf("realMain: %v", err)
	}

	if diff := cmp.Diff(`[{"name":"ada","score":"10"}]`+"\n", stdout.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRealMainToCompressedFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "rows.json.gz")

	var stdout strings.Builder
	err := realMain(
		context.Background(),
		strings.NewReader("k\tv\nx\ty\n"),
		&stdout,
		[]string{"delim2json", "-out", out, "-"},
	)
	if err != nil {
		t.Fatalf("realMain: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}

	src, err := stream.Open(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var got []map[string]string
	if err := json.NewDecoder(src).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff([]map[string]string{{"k": "x", "v": "y"}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
