package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/olekukonko/tablewriter"

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
		os.Args,
		os.Stdin,
		os.Stdout,
		os.Stderr,
	); err != nil {
		if !errors.Is(err, config.ErrUsage) && !errors.Is(err, stream.ErrBrokenPipe) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

func realMain(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) error {
	fs := flag.NewFlagSet(filepath.Base(args[0]), flag.ContinueOnError)
	fs.SetOutput(stderr)
	flagDelimiter := fs.String("d", "\t", `field delimiter, "tab" or \t for tab`)
	flagNoHeader := fs.Bool("no-header", false, "treat the first row as data")
	fs.String(config.FlagConfig, "", "YAML file with flag values")
	fs.Usage = config.UsageFunc(fs, config.Usage{
		Synopsis:    "[options] [FILE]",
		Description: "Render a delimited file as a markdown table. FILE defaults to standard in.",
	})

	if err := config.Parse(fs, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() > 1 {
		fs.Usage()
		return config.ErrUsage
	}

	input := "-"
	if fs.NArg() == 1 {
		input = fs.Arg(0)
	}

	comma, err := delim.ParseDelimiter(*flagDelimiter)
	if err != nil {
		return err
	}

	src, err := stream.Open(input, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := stream.Create("", stdout)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(sink)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	r := delim.NewReader(src, comma)
	header, err := r.Header()
	if err != nil {
		_ = sink.Close()
		return err
	}

	if *flagNoHeader {
		table.Append(header)
	} else {
		table.SetHeader(header)
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = sink.Close()
			return err
		}

		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = sink.Close()
			return err
		}
		if len(row) == 0 {
			continue
		}

		table.Append(row)
	}

	// Render does not report write errors; the sink keeps them.
	table.Render()

	if err := sink.Close(); err != nil {
		return err
	}
	if sink.Draining() {
		return stream.ErrBrokenPipe
	}

	return nil
}
