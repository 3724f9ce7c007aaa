package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kiln/internal/diag"
	"kiln/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, path, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgHiBlack),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		prettyOne(w, &items[i], fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	loc := formatLocation(d.Primary, fs, opts.PathMode)
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		pal.path.Sprint(loc),
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		d.Code.ID(),
		d.Message,
	)
	writeSnippet(w, d.Primary, fs, opts, pal)

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  %s %s: %s\n", pal.note.Sprint("note:"), formatLocation(n.Span, fs, opts.PathMode), n.Msg)
		writeSnippet(w, n.Span, fs, PrettyOpts{Context: 0, Width: opts.Width}, pal)
	}
}

// noSpan: диагностика без позиции (тайминги, ошибки исполнения без кадра).
func noSpan(span source.Span) bool {
	return span.Start == 0 && span.End == 0
}

func formatLocation(span source.Span, fs *source.FileSet, mode PathMode) string {
	if noSpan(span) {
		return "kiln"
	}
	if fs == nil {
		return span.String()
	}
	f := fs.Get(span.File)
	if f == nil {
		return span.String()
	}
	start, _ := fs.Resolve(span)
	path := f.FormatPath(mode.String(), fs.BaseDir())
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func writeSnippet(w io.Writer, span source.Span, fs *source.FileSet, opts PrettyOpts, pal palette) {
	if fs == nil || noSpan(span) {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	first := int64(start.Line) - int64(max(opts.Context, 0))
	if first < 1 {
		first = 1
	}
	last := start.Line + uint32(max(opts.Context, 0))
	gw := len(fmt.Sprint(last))

	for ln := uint32(first); ln <= last; ln++ {
		text := f.GetLine(ln)
		if ln != start.Line && text == "" {
			continue
		}
		expanded := expandTabs(text)
		if opts.Width > 0 {
			expanded = runewidth.Truncate(expanded, int(opts.Width), "…")
		}
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", gw, ln), expanded)
		if ln != start.Line {
			continue
		}

		// отступ до начала span в экранных колонках
		prefix := byteColPrefix(text, start.Col)
		pad := runewidth.StringWidth(expandTabs(prefix))
		width := 1
		if end.Line == start.Line && end.Col > start.Col {
			width = runewidth.StringWidth(expandTabs(byteSlice(text, start.Col, end.Col)))
			if width < 1 {
				width = 1
			}
		}
		mark := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", gw, ""), strings.Repeat(" ", pad), pal.caret.Sprint(mark))
	}
}

func byteColPrefix(line string, col uint32) string {
	n := int(col) - 1
	if n <= 0 {
		return ""
	}
	if n > len(line) {
		// позиция за концом строки: добиваем пробелами
		return line + strings.Repeat(" ", n-len(line))
	}
	return line[:n]
}

func byteSlice(line string, from, to uint32) string {
	a, b := int(from)-1, int(to)-1
	if a < 0 {
		a = 0
	}
	if b > len(line) {
		b = len(line)
	}
	if a >= b {
		return ""
	}
	return line[a:b]
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
