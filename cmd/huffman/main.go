// huffman compresses and decompresses files with a Huffman code built over
// fixed-width bit units.
//
// Usage:
//
//	huffman encode --input FILE --output FILE --unit-len N
//	huffman decode --input FILE --output FILE
//	huffman inspect --input FILE
//
// The mode may also be given as --type enc or --type dec.  Output is written
// to a temporary file next to the destination and renamed into place only
// once it is complete.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/pflag"

	"github.com/chronos-tachyon/huffman/v2"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprint(os.Stderr, usageText)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// usageError reports invalid or missing arguments.  It exits with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// arguments holds the parsed command line.
type arguments struct {
	mode   string
	input  string
	output string
	cfg    *Config
}

func parseArguments(args []string, stderr io.Writer) (*arguments, error) {
	var (
		typeFlag      string
		input         string
		output        string
		configPath    string
		unitLen       int
		treeSizeWidth int
		chunkSize     int
		logLevel      string
		showVersion   bool
	)

	flagSet := pflag.NewFlagSet("huffman", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&typeFlag, "type", "", "mode: enc or dec (alternative to a positional mode)")
	flagSet.StringVarP(&input, "input", "i", "", "input file")
	flagSet.StringVarP(&output, "output", "o", "", "output file")
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file")
	flagSet.IntVarP(&unitLen, "unit-len", "u", 0, "unit width in bits, 1 to 255 (encode only)")
	flagSet.IntVar(&treeSizeWidth, "tree-size-width", huffman.DefaultTreeSizeWidth, "width in bytes of the tree size field")
	flagSet.IntVar(&chunkSize, "chunk-size", huffman.DefaultChunkSize, "bytes read per chunk")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stderr, flagSet)
			return nil, nil
		}
		return nil, usagef("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stderr, flagSet)
		return nil, nil
	}
	if showVersion {
		return &arguments{mode: "version"}, nil
	}

	cfg := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadFile(configPath)
		if err != nil {
			return nil, usagef("cannot load config: %v", err)
		}
		cfg = loaded
	}
	if flagSet.Changed("unit-len") {
		cfg.UnitLen = unitLen
	}
	if flagSet.Changed("tree-size-width") {
		cfg.TreeSizeWidth = treeSizeWidth
	}
	if flagSet.Changed("chunk-size") {
		cfg.ChunkSize = chunkSize
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, usagef("%v", err)
	}

	mode, err := resolveMode(typeFlag, flagSet.Args())
	if err != nil {
		return nil, err
	}

	result := &arguments{mode: mode, input: input, output: output, cfg: cfg}
	if result.input == "" {
		return nil, usagef("--input is required")
	}
	switch mode {
	case "encode":
		if cfg.UnitLen == 0 {
			return nil, usagef("--unit-len is required for encode")
		}
		fallthrough
	case "decode":
		if result.output == "" {
			return nil, usagef("--output is required for %s", mode)
		}
	}
	return result, nil
}

func resolveMode(typeFlag string, positional []string) (string, error) {
	var mode string
	switch typeFlag {
	case "":
	case "enc":
		mode = "encode"
	case "dec":
		mode = "decode"
	default:
		return "", usagef("--type must be enc or dec, got %q", typeFlag)
	}

	if len(positional) > 1 {
		return "", usagef("unexpected argument: %s", positional[1])
	}
	if len(positional) == 1 {
		switch positional[0] {
		case "encode", "decode", "inspect":
		default:
			return "", usagef("unknown mode: %s", positional[0])
		}
		if mode != "" && mode != positional[0] {
			return "", usagef("--type %s conflicts with mode %s", typeFlag, positional[0])
		}
		mode = positional[0]
	}

	if mode == "" {
		return "", usagef("a mode (encode, decode or inspect) is required")
	}
	return mode, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	parsed, err := parseArguments(args, stderr)
	if err != nil {
		return err
	}
	if parsed == nil {
		return nil
	}
	if parsed.mode == "version" {
		fmt.Fprintf(stdout, "huffman %s\n", versionString())
		return nil
	}

	level, _ := parseLevel(parsed.cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	opts := parsed.cfg.Options(logger)
	src := huffman.FileSource{Path: parsed.input, ChunkSize: opts.ChunkSize}

	switch parsed.mode {
	case "encode":
		err := writeAtomically(parsed.output, func(w io.Writer) error {
			return huffman.Encode(src, w, opts)
		})
		if err == nil {
			logSummary(logger, parsed)
		}
		return err

	case "decode":
		err := writeAtomically(parsed.output, func(w io.Writer) error {
			return huffman.Decode(src, w, opts)
		})
		if err == nil {
			logSummary(logger, parsed)
		}
		return err

	case "inspect":
		d, err := huffman.Inspect(src, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %s\n", parsed.input, d.Header())
		_, err = d.Dump(stdout)
		return err
	}
	return fmt.Errorf("unhandled mode %q", parsed.mode)
}

// writeAtomically runs fn against a temporary file in the destination's
// directory and renames it to path only if fn succeeds.  On any failure the
// temporary file is removed and path is left untouched.
func writeAtomically(path string, fn func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fn(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func logSummary(logger *slog.Logger, parsed *arguments) {
	in, err := os.Stat(parsed.input)
	if err != nil {
		return
	}
	out, err := os.Stat(parsed.output)
	if err != nil {
		return
	}
	ratio := 0.0
	if in.Size() != 0 {
		ratio = float64(out.Size()) / float64(in.Size())
	}
	logger.Info(parsed.mode+" finished",
		"input", parsed.input,
		"inputBytes", in.Size(),
		"output", parsed.output,
		"outputBytes", out.Size(),
		"ratio", fmt.Sprintf("%.3f", ratio))
}

func versionString() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}

const usageText = `Usage:
  huffman encode --input FILE --output FILE --unit-len N
  huffman decode --input FILE --output FILE
  huffman inspect --input FILE
`

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "huffman compresses files with a Huffman code over fixed-width bit units.\n\n%s\nFlags:\n%s", usageText, flagSet.FlagUsages())
}
