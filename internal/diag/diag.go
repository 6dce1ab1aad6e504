// Package diag formats Craeft's diagnostics: "<file>:<line>:<col>:
// HEADER: message" followed by the offending source line and a caret
// pointing at the column, colored when the destination is a terminal.
package diag

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"craeft/internal/source"
)

// Kind names the class of a Craeft diagnostic.
type Kind int

const (
	LexerError Kind = iota
	ParserError
	NameError
	TypeError
	GenericError
	InternalError
)

func (k Kind) header() string {
	switch k {
	case LexerError:
		return "lexer error"
	case ParserError:
		return "parser error"
	case NameError:
		return "name error"
	case TypeError:
		return "type error"
	case InternalError:
		return "internal error"
	default:
		return "error"
	}
}

// Error is a single Craeft diagnostic: a kind, a message, and the source
// position it refers to. It implements the standard error interface so
// it can flow through ordinary Go error-returning functions.
type Error struct {
	Kind Kind
	Msg  string
	Pos  source.Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.header(), e.Msg)
}

// New constructs a diagnostic Error of the given kind.
func New(kind Kind, pos source.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Internal is shorthand for an InternalError, the one class of error the
// compiler itself should rarely (and never deliberately) raise.
func Internal(pos source.Pos, format string, args ...interface{}) *Error {
	return New(InternalError, pos, format, args...)
}

const (
	termErr   = "\x1b[31;1m"
	termIndic = "\x1b[32;1m"
	termReset = "\x1b[0m"
)

// lineCache lazily reads and caches the lines of files referenced in
// diagnostics, so that repeated errors in the same file don't re-read
// it from disk.
type lineCache struct {
	lines map[string][]string
}

func newLineCache() *lineCache {
	return &lineCache{lines: make(map[string][]string)}
}

func (c *lineCache) line(path string, lineno int) string {
	lines, ok := c.lines[path]
	if !ok {
		lines = readLines(path)
		c.lines[path] = lines
	}
	if lineno < 1 || lineno > len(lines) {
		return ""
	}
	return lines[lineno-1]
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// Reporter prints Craeft diagnostics to an output stream, caching source
// lines across calls and deciding whether to colorize based on whether
// the stream is a terminal.
type Reporter struct {
	out    io.Writer
	files  *source.Files
	cache  *lineCache
	color  bool
	Failed bool
}

// NewReporter returns a Reporter that writes to w, resolving file ids
// through files. Color is enabled only when w is an *os.File attached
// to a terminal.
func NewReporter(w io.Writer, files *source.Files) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{out: w, files: files, cache: newLineCache(), color: color}
}

// Report prints err and marks the reporter as having seen a failure.
// The driver calls this for each top-level form that fails code
// generation and continues with the next form; after a lexer or parser
// error it stops reading the file. Emission is suppressed if Failed is
// ever set.
func (r *Reporter) Report(err error) {
	r.Failed = true
	ce, ok := err.(*Error)
	if !ok {
		fmt.Fprintf(r.out, "error: %s\n", err)
		return
	}

	fname := r.files.Name(ce.Pos.File)
	header := ce.Kind.header()

	if r.color {
		fmt.Fprintf(r.out, "%s:%d:%d: %s%s:%s %s\n",
			fname, ce.Pos.Line, ce.Pos.Col, termErr, header, termReset, ce.Msg)
	} else {
		fmt.Fprintf(r.out, "%s:%d:%d: %s: %s\n", fname, ce.Pos.Line, ce.Pos.Col, header, ce.Msg)
	}

	line := r.cache.line(fname, int(ce.Pos.Line))
	if line == "" {
		return
	}
	fmt.Fprintf(r.out, "\t%s\n", line)

	col := int(ce.Pos.Col)
	if col < 1 {
		col = 1
	}
	pad := strings.Repeat(" ", col-1)
	if r.color {
		fmt.Fprintf(r.out, "\t%s%s^%s\n", pad, termIndic, termReset)
	} else {
		fmt.Fprintf(r.out, "\t%s^\n", pad)
	}
}
