package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/term"

	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/codegen"
	"github.com/codeassociates/huec/lexer"
	"github.com/codeassociates/huec/parser"
	"github.com/codeassociates/huec/semantic"
	"github.com/codeassociates/huec/text"
)

const version = "0.1.0"

func main() {
	// -O0..-O3 are not expressible as stdlib flags; pull them out of the
	// argument list before flag parsing.
	optLevel := env.Int("HUE_OPT", 2)
	args := make([]string, 0, len(os.Args)-1)
	for _, a := range os.Args[1:] {
		if len(a) == 3 && strings.HasPrefix(a, "-O") && a[2] >= '0' && a[2] <= '3' {
			optLevel = int(a[2] - '0')
			continue
		}
		args = append(args, a)
	}

	showVersion := flag.Bool("version", false, "Print version and exit")
	parseOnly := flag.Bool("parse-only", false, "Print AST and exit")
	compileOnly := flag.Bool("compile-only", false, "Compile to IR but do not execute")
	outputIR := flag.String("output-ir", "", "Write textual IR to path ('-' for stdout)")
	batch := flag.Bool("batch", env.Bool("HUE_BATCH"), "Do NOT run in interactive (REPL) mode")
	entryFunc := flag.String("entry-function", env.Str("HUE_ENTRY", "main"), "Override entry symbol")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "huec - A compiler front end for the Hue language\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [-O0..-O3] <input-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       '-' or no input file reads stdin\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.CommandLine.Parse(args)
	_ = optLevel // parsed but not used: the driver emits unoptimised IR

	if *showVersion {
		fmt.Printf("huec version %s\n", version)
		os.Exit(0)
	}

	inputFile := "-"
	if flag.NArg() > 0 {
		inputFile = flag.Arg(0)
	}

	interactive := inputFile == "-" && !*batch && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		runREPL(*parseOnly, *entryFunc)
		return
	}

	var source text.Text
	var err error
	moduleName := "stdin"
	if inputFile == "-" {
		source, err = text.ReadAll(os.Stdin)
	} else {
		moduleName = strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		source, err = text.ReadFile(inputFile)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	module, ok := compileModule(source, moduleName)
	if !ok {
		os.Exit(1)
	}

	if *parseOnly {
		fmt.Println(ast.Source(module.Body))
		os.Exit(0)
	}

	gen := codegen.New(moduleName, *entryFunc)
	ir, err := gen.Generate(module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Code generation errors:\n")
		for _, e := range gen.Errors() {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		os.Exit(1)
	}

	if *outputIR != "" {
		if *outputIR == "-" {
			fmt.Print(ir)
		} else if err := os.WriteFile(*outputIR, []byte(ir), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing IR: %s\n", err)
			os.Exit(1)
		}
	}

	if *compileOnly {
		os.Exit(0)
	}

	// Execution belongs to the external JIT host; hand it the IR on stdout
	// when no other sink was chosen.
	if *outputIR == "" {
		fmt.Print(ir)
	}
}

// compileModule runs lexing, parsing and the semantic pass, printing any
// diagnostics to stderr. ok is false when errors were found.
func compileModule(source text.Text, moduleName string) (*ast.Function, bool) {
	p := parser.New(lexer.New(source))
	module := p.ParseModule()

	if errs := p.Errors(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Parse errors in %s:\n", moduleName)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return nil, false
	}

	errs, warnings := semantic.Analyze(module)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "Error: %s\n", e)
		}
		return nil, false
	}

	return module, true
}

// runREPL reads a line at a time, accumulating definitions: each input line
// is appended to the module source and recompiled; the AST of the module's
// last expression and the IR of the whole accumulated module are printed.
// Evaluation is left to the JIT host.
func runREPL(parseOnly bool, entryFunc string) {
	useColor := !env.Bool("NO_COLOR")
	prompt := "hue> "
	if useColor {
		prompt = "\x1b[36mhue>\x1b[0m "
	}

	fmt.Printf("huec %s interactive mode. Ctrl-D exits.\n", version)

	var history []string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		source := text.FromString(strings.Join(append(history, line), "\n") + "\n")
		module, ok := compileModule(source, "repl")
		if !ok {
			continue
		}
		history = append(history, line)

		if exprs := module.Body.Expressions; len(exprs) > 0 {
			last := exprs[len(exprs)-1]
			fmt.Printf("ast: %s\n", last.String())
		}
		if parseOnly {
			continue
		}

		gen := codegen.New("repl", entryFunc)
		ir, err := gen.Generate(module)
		if err != nil {
			for _, e := range gen.Errors() {
				fmt.Fprintf(os.Stderr, "Error: %s\n", e)
			}
			// Keep the line: it parsed and analysed; only emission balked.
			continue
		}
		fmt.Print(ir)
	}
}
