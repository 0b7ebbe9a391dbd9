// Package config parses command line flags with ff, optionally backed by a
// YAML file named by the -config flag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"gopkg.in/yaml.v3"
)

// ErrUsage marks errors caused by a wrong invocation. Usage has already been
// printed when it is returned.
var ErrUsage = errors.New("usage error")

// FlagConfig is the name of the flag holding the config file path.
const FlagConfig = "config"

// Options are the ff options shared by all tools.
func Options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag(FlagConfig),
		ff.WithConfigFileParser(YAMLParser),
	}
}

// Parse parses args into fs, then applies values from the config file for
// flags not given on the command line.
//
// fs should use flag.ContinueOnError. flag.ErrHelp is returned as is;
// command line errors, which fs has already reported, wrap ErrUsage.
func Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	// ff parses args again before reading the config file; it cannot fail
	// on the command line anymore.
	if err := ff.Parse(fs, args, Options()...); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ff only protects the exact flag names given on the command line, so a
	// config value for "delimiter" would beat "-d". Apply the command line last.
	return fs.Parse(args)
}

// YAMLParser is an ff.ConfigFileParser for flat YAML maps:
//
//	delimiter: ","
//	out: rows.tsv.gz
//	log: DEBUG
//
// Keys are flag names; values must be scalars.
func YAMLParser(r io.Reader, set func(name, value string) error) error {
	var m map[string]any
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode yaml: %w", err)
	}

	for _, key := range slices.Sorted(maps.Keys(m)) {
		value, err := scalar(m[key])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}

		if err := set(key, value); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}

	return nil
}

func scalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Usage describes a tool for its -h output.
type Usage struct {
	Synopsis    string
	Description string
	Epilog      string
}

// UsageFunc returns a flag.FlagSet Usage function printing u around the
// flag defaults.
func UsageFunc(fs *flag.FlagSet, u Usage) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: %s %s\n", fs.Name(), u.Synopsis)
		if u.Description != "" {
			fmt.Fprintf(w, "\n%s\n", u.Description)
		}
		fmt.Fprintf(w, "\nOptions:\n")
		fs.PrintDefaults()
		if u.Epilog != "" {
			fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(u.Epilog))
		}
	}
}
