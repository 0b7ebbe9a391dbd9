package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterbourgon/ff/v3/ffcli"

	"code.selman.me/delimkit/internal/config"
	"code.selman.me/delimkit/internal/delim"
	"code.selman.me/delimkit/internal/stream"
)

func main() {
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := realMain(
		ctx,
		os.Stdin,
		os.Stdout,
		os.Args,
	); err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, stream.ErrBrokenPipe) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

func realMain(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	args []string,
) error {
	exec := filepath.Base(args[0])

	fs := flag.NewFlagSet(exec, flag.ContinueOnError)
	flagDelimiter := fs.String("d", "\t", `field delimiter, "tab" or \t for tab`)
	flagOut := fs.String("out", "", "output file, compressed by suffix [default: stdout]")
	flagCompact := fs.Bool("compact", false, "do not indent the output")
	fs.String(config.FlagConfig, "", "YAML file with flag values")

	rootCmd := &ffcli.Command{
		Name:       exec,
		ShortUsage: fmt.Sprintf("%v [flags] [FILE]", exec),
		ShortHelp:  "Convert a delimited file with a header row to a JSON array of objects.",
		FlagSet:    fs,
		Options:    config.Options(),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) > 1 {
				return flag.ErrHelp
			}

			input := "-"
			if len(args) == 1 {
				input = args[0]
			}

			comma, err := delim.ParseDelimiter(*flagDelimiter)
			if err != nil {
				return err
			}

			return convert(ctx, input, *flagOut, comma, *flagCompact, stdin, stdout)
		},
	}

	return rootCmd.ParseAndRun(ctx, args[1:])
}

func convert(
	ctx context.Context,
	input, output string,
	comma rune,
	compact bool,
	stdin io.Reader,
	stdout io.Writer,
) error {
	src, err := stream.Open(input, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := records(ctx, delim.NewReader(src, comma))
	if err != nil {
		return err
	}

	var o []byte
	if compact {
		o, err = json.Marshal(data)
	} else {
		o, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return err
	}

	sink, err := stream.Create(output, stdout)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(sink, "%s\n", o); err != nil {
		_ = sink.Close()
		return err
	}

	return sink.Close()
}

// records maps every data row onto the header. Missing trailing fields are
// empty strings; fields beyond the header are dropped, blank lines skipped.
func records(ctx context.Context, r *delim.Reader) ([]map[string]string, error) {
	headers, err := r.Header()
	if err != nil {
		return nil, err
	}

	data := []map[string]string{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i >= len(fields) {
				row[header] = ""
				continue
			}
			row[header] = fields[i]
		}
		data = append(data, row)
	}

	return data, nil
}
