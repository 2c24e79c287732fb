package docindex

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mwiater/docindex/internal/util"
)

// consoleReporter prints per-file progress lines.
type consoleReporter struct {
	out  io.Writer
	ok   func(a ...any) string
	fail func(a ...any) string
	info func(a ...any) string
}

func newConsoleReporter(out io.Writer) *consoleReporter {
	return &consoleReporter{
		out:  out,
		ok:   color.New(color.FgGreen).SprintFunc(),
		fail: color.New(color.FgRed, color.Bold).SprintFunc(),
		info: color.New(color.FgCyan).SprintFunc(),
	}
}

func (r *consoleReporter) Stage(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.info("==>"), msg)
}

func (r *consoleReporter) FileIndexed(source string, chunks int) {
	fmt.Fprintf(r.out, "  %s %s (%d chunks)\n", r.ok("ok"), source, chunks)
}

func (r *consoleReporter) FileFailed(source string, err error) {
	fmt.Fprintf(r.out, "  %s %s: %s\n", r.fail("error"), source, util.TruncateRunes(err.Error(), maxErrorWidth))
}

func errorText(err error) string {
	return color.New(color.FgRed, color.Bold).Sprint("Error: ") + err.Error()
}
