package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pl0toolchain/pl0c/compiler"
	"github.com/pl0toolchain/pl0c/config"
	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/lexer"
	"github.com/pl0toolchain/pl0c/toolerr"
	"github.com/pl0toolchain/pl0c/tools"
	"github.com/pl0toolchain/pl0c/trace"
	"github.com/pl0toolchain/pl0c/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Path to config file (default: platform config dir)")

		enableTrace = flag.Bool("trace", false, "Enable execution trace")
		traceFile   = flag.String("trace-file", "", "Trace output file (default: config trace output_file, else stderr)")
		listCode    = flag.Bool("list", false, "Print the compiled code listing and exit")
		dumpSymbols = flag.Bool("dump-symbols", false, "Dump the symbol table and exit")
		format      = flag.Bool("format", false, "Print the canonical reformatting of the source and exit")
		compact     = flag.Bool("compact", false, "With -format, use the compact single-line style")

		stackSize = flag.Int("stack-size", 0, "Stack size in cells (default: from config)")
		maxCode   = flag.Int("max-code", 0, "Code memory capacity in instructions (default: from config)")

		inFile  = flag.String("in", "", "File to read VM-in from (default: stdin)")
		outFile = flag.String("out", "", "File to write VM-out to (default: stdout)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("pl0c %s (%s)\n", Version, Commit)
		os.Exit(0)
	}

	if *showHelp || flag.NArg() != 1 {
		printUsage()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(flag.Arg(0), runOptions{
		configPath:  *configPath,
		enableTrace: *enableTrace,
		traceFile:   *traceFile,
		listCode:    *listCode,
		dumpSymbols: *dumpSymbols,
		format:      *format,
		compact:     *compact,
		stackSize:   *stackSize,
		maxCode:     *maxCode,
		inFile:      *inFile,
		outFile:     *outFile,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "pl0c:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: pl0c [flags] <source-file>")
	flag.PrintDefaults()
}

type runOptions struct {
	configPath  string
	enableTrace bool
	traceFile   string
	listCode    bool
	dumpSymbols bool
	format      bool
	compact     bool
	stackSize   int
	maxCode     int
	inFile      string
	outFile     string
}

func run(sourcePath string, opts runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	maxStack := cfg.Limits.MaxStack
	if opts.stackSize > 0 {
		maxStack = opts.stackSize
	}
	maxCode := cfg.Limits.MaxCode
	if opts.maxCode > 0 {
		maxCode = opts.maxCode
	}

	source, err := os.ReadFile(sourcePath) // #nosec G304 -- user-supplied source path
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	toks, err := lexer.Lex(string(source))
	if err != nil {
		return explainError(err)
	}

	if opts.format {
		fmtOpts := tools.DefaultFormatOptions()
		if opts.compact {
			fmtOpts = tools.CompactFormatOptions()
		}
		fmt.Print(tools.NewFormatter(fmtOpts).Format(toks))
		return nil
	}

	code, syms, err := compiler.New(toks, maxCode).Compile()
	if err != nil {
		return explainError(err)
	}

	if opts.listCode {
		fmt.Print(trace.CodeListing(code))
		return nil
	}

	if opts.dumpSymbols {
		fmt.Print(syms.Dump())
		return nil
	}

	in, err := openInput(opts.inFile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(opts.outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	m := vm.New(code, maxStack, in, out)

	if opts.enableTrace || cfg.Trace.EnableExecTrace {
		tf, err := openTraceSink(opts.traceFile, cfg)
		if err != nil {
			return err
		}
		defer tf.Close()

		tr := trace.New(tf)
		err = m.RunTraced(func(addr int, instr isa.Instruction) {
			tr.Record(m, addr, instr)
		})
		if err != nil {
			return explainError(err)
		}
		return nil
	}

	if err := m.Run(); err != nil {
		return explainError(err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func openInput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(path) // #nosec G304 -- user-supplied input path
	if err != nil {
		return nil, fmt.Errorf("opening -in file: %w", err)
	}
	return f, nil
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.Create(path) // #nosec G304 -- user-supplied output path
	if err != nil {
		return nil, fmt.Errorf("opening -out file: %w", err)
	}
	return f, nil
}

func openTraceSink(path string, cfg *config.Config) (*os.File, error) {
	if path == "" {
		path = cfg.Trace.OutputFile
	}
	if path == "" {
		return os.Stderr, nil
	}
	f, err := os.Create(path) // #nosec G304 -- user-supplied trace path
	if err != nil {
		return nil, fmt.Errorf("opening -trace-file: %w", err)
	}
	return f, nil
}

// explainError renders the closed sum of lexical, syntactic/semantic,
// and runtime-fault errors with a prefix identifying which kind fired,
// rather than collapsing them into a single generic message.
func explainError(err error) error {
	switch e := err.(type) {
	case *toolerr.LexError:
		return fmt.Errorf("lexical error: %w", e)
	case *toolerr.ParseError:
		return fmt.Errorf("parse error: %w", e)
	case *toolerr.RuntimeFault:
		return fmt.Errorf("runtime fault: %w", e)
	default:
		return err
	}
}
