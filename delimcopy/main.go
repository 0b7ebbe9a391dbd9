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

	"github.com/dustin/go-humanize"

	"code.selman.me/delimkit/internal/alert"
	"code.selman.me/delimkit/internal/config"
	"code.selman.me/delimkit/internal/delim"
	"code.selman.me/delimkit/internal/stream"
	"code.selman.me/delimkit/internal/version"
)

func main() {
	// Writes to a closed stdout fail with EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// realMain reports its own errors.
	if err := realMain(
		ctx,
		os.Args,
		os.Stdin,
		os.Stdout,
		os.Stderr,
	); err != nil {
		cancel()
		os.Exit(1)
	}
}

// transform is applied to every data row; put row rewriting here.
var transform delim.Transform = delim.Identity

func realMain(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) error {
	logger := alert.New(stderr)

	fs := flag.NewFlagSet(filepath.Base(args[0]), flag.ContinueOnError)
	fs.SetOutput(stderr)

	var flagDelimiter, flagOut string
	fs.StringVar(&flagDelimiter, "d", "\t", "shorthand for -delimiter")
	fs.StringVar(&flagDelimiter, "delimiter", "\t", `Delimiter used in file, "tab" or \t for tab.`)
	fs.StringVar(&flagOut, "o", "", "shorthand for -out")
	fs.StringVar(&flagOut, "out", "", `Out-file, compressed by suffix (gz, bz2, zip, zst, lz4, sz). [default: "stdout"]`)
	flagLog := fs.String("log", "INFO", "Log level: DEBUG, INFO, SUCCESS, WARNING, ERROR.")
	flagVersion := fs.Bool("version", false, "Print version and exit.")
	fs.String(config.FlagConfig, "", "YAML file with flag values; command line flags take precedence.")

	fs.Usage = config.UsageFunc(fs, config.Usage{
		Synopsis:    "[options] FILE",
		Description: "Read delimited file. FILE may be \"-\" or \"stdin\" to read from standard in;\ngz, bz2, zip, zst, lz4 and sz files are decompressed.",
		Epilog:      version.Epilog(),
	})

	if len(args) < 2 {
		fs.Usage()
		return config.ErrUsage
	}

	if err := config.Parse(fs, args[1:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return nil
		case errors.Is(err, config.ErrUsage):
			return err
		}
		logger.Error("%v", err)
		return err
	}

	if *flagVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	level, err := alert.ParseLevel(*flagLog)
	if err != nil {
		logger.Error("%v", err)
		return err
	}
	logger.SetLevel(level)

	if fs.NArg() != 1 {
		if fs.NArg() == 0 {
			logger.Error("the following arguments are required: FILE")
		} else {
			logger.Error("expected one FILE, got %d: %q", fs.NArg(), fs.Args())
		}
		fs.Usage()
		return config.ErrUsage
	}
	input := fs.Arg(0)

	comma, err := delim.ParseDelimiter(flagDelimiter)
	if err != nil {
		logger.Error("%v", err)
		return fmt.Errorf("%w: %w", config.ErrUsage, err)
	}

	err = copyFile(ctx, logger, input, flagOut, comma, stdin, stdout)

	var reported errReported
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stream.ErrBrokenPipe):
		// The consumer stopped reading; nothing worth reporting.
		return err
	case errors.As(err, &reported):
		return err
	default:
		logger.Error("%v", err)
		return err
	}
}

func copyFile(
	ctx context.Context,
	logger *alert.Logger,
	input, output string,
	comma rune,
	stdin io.Reader,
	stdout io.Writer,
) (err error) {
	src, err := stream.Open(input, stdin)
	if err != nil {
		logger.Error("Could not load file %q. EXIT.", input)
		logger.Debug("%v", err)
		return errReported{err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close input: %w", cerr)
		}
	}()

	sink, err := stream.Create(output, stdout)
	if err != nil {
		return err
	}

	logger.Debug("reading %s (%v), writing %s (%v)", src.Path, src.Codec, outputName(output), sink.Codec)

	stats, err := delim.Copy(
		ctx,
		delim.NewReader(src, comma),
		delim.NewWriter(sink, comma),
		transform,
	)
	if err != nil {
		_ = sink.Close()
		return err
	}

	if err := sink.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Debug("copied header (%d fields) and %d rows, %s read",
		stats.Header, stats.Rows, humanize.Bytes(uint64(src.BytesRead())))

	return nil
}

func outputName(output string) string {
	if stream.IsStdout(output) {
		return "stdout"
	}
	return output
}

// errReported wraps an error that has already been logged.
type errReported struct {
	err error
}

func (e errReported) Error() string { return e.err.Error() }

func (e errReported) Unwrap() error { return e.err }
