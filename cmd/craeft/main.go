// Command craeft compiles a single Craeft source file to LLVM IR,
// assembly, or a native object file.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"craeft/internal/codegen"
	"craeft/internal/diag"
	"craeft/internal/emit"
	"craeft/internal/lexer"
	"craeft/internal/parser"
	"craeft/internal/source"
	"craeft/internal/translator"
)

const appVersion = "craeft compiler 0.1"

// options holds the parsed command line.
type options struct {
	Src     string
	Obj     string
	Asm     string
	IR      string
	OptO    int
	Verbose bool
}

func printHelp() {
	fmt.Println(appVersion)
	fmt.Println("usage: craeft [flags] <source.cr>")
	fmt.Println()
	fmt.Println("flags:")
	fmt.Println("  -c, --obj <path>   write a native object file to path")
	fmt.Println("  -s, --asm <path>   write target assembly to path")
	fmt.Println("      --ll <path>    write textual LLVM IR to path")
	fmt.Println("  -O, --opt <n>      optimization level (default 0)")
	fmt.Println("  -v, --verbose      dump LLVM IR to stderr before emission")
	fmt.Println("  -h, --help         print this message and exit")
}

// parseArgs parses os.Args[1:] into an options value.
func parseArgs(args []string) (options, error) {
	var opt options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			printHelp()
			os.Exit(0)
		case "-c", "--obj":
			v, err := flagValue(args, &i, "--obj")
			if err != nil {
				return opt, err
			}
			opt.Obj = v
		case "-s", "--asm":
			v, err := flagValue(args, &i, "--asm")
			if err != nil {
				return opt, err
			}
			opt.Asm = v
		case "--ll":
			v, err := flagValue(args, &i, "--ll")
			if err != nil {
				return opt, err
			}
			opt.IR = v
		case "-O", "--opt":
			v, err := flagValue(args, &i, "--opt")
			if err != nil {
				return opt, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return opt, fmt.Errorf("expected integer optimization level, got %q", v)
			}
			opt.OptO = n
		case "-v", "--verbose":
			opt.Verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return opt, fmt.Errorf("unrecognized flag %q", args[i])
			}
			if opt.Src != "" {
				return opt, fmt.Errorf("unexpected extra argument %q", args[i])
			}
			opt.Src = args[i]
		}
	}

	if opt.Src == "" {
		return opt, fmt.Errorf("no source file given")
	}
	if opt.Obj == "" && opt.Asm == "" && opt.IR == "" {
		return opt, fmt.Errorf("nothing to do: pass at least one of --obj, --asm, --ll")
	}
	return opt, nil
}

func flagValue(args []string, i *int, name string) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("flag %s requires an argument", name)
	}
	*i++
	return args[*i], nil
}

// run drives every compiler stage for one source file: lex and parse
// each top-level form, report and skip any that fail code generation,
// then (only if every form succeeded) optimize and emit. A lexer or
// parser error is reported and ends parsing of the file; no later form
// is read.
func run(opt options) int {
	src, err := os.ReadFile(opt.Src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
		return 1
	}

	files := source.NewFiles()
	fid := files.Register(opt.Src)
	rep := diag.NewReporter(os.Stderr, files)

	lx, err := lexer.New(fid, string(src))
	if err != nil {
		rep.Report(err)
		return 2
	}
	p := parser.New(lx)

	tr := translator.New(strings.TrimSuffix(opt.Src, ".cr"))
	defer tr.Dispose()
	gen := codegen.New(tr)

	for !p.AtEOF() {
		n, err := p.ParseToplevel()
		if err != nil {
			rep.Report(err)
			break
		}
		if err := gen.Toplevel(n); err != nil {
			rep.Report(err)
			continue
		}
		// Specializations referenced by the form just generated are filled
		// in before moving on, reaching a fixed point per form.
		if err := gen.DrainSpecializations(); err != nil {
			rep.Report(err)
		}
	}

	if rep.Failed {
		return 2
	}

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, "LLVM IR:")
		fmt.Fprintln(os.Stderr, tr.Mod.String())
	}

	if err := emit.Validate(tr.Mod); err != nil {
		fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
		return 2
	}
	emit.Optimize(tr.Mod, opt.OptO)

	if opt.IR != "" {
		if err := writeTo(opt.IR, func(w *os.File) error { return emit.EmitIR(tr.Mod, w) }); err != nil {
			fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
			return 2
		}
	}
	if opt.Asm != "" {
		if err := writeTo(opt.Asm, func(w *os.File) error { return emit.EmitAsm(tr.Mod, w) }); err != nil {
			fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
			return 2
		}
	}
	if opt.Obj != "" {
		if err := writeTo(opt.Obj, func(w *os.File) error { return emit.EmitObj(tr.Mod, w) }); err != nil {
			fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
			return 2
		}
	}
	return 0
}

func writeTo(path string, f func(*os.File) error) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer out.Close()
	return f(out)
}

func main() {
	opt, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "craeft: %s\n", err)
		os.Exit(1)
	}
	os.Exit(run(opt))
}
