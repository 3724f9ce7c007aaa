package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"kiln/internal/source"
)

// RuntimeBufferName is the virtual buffer that holds runtime-support declarations.
const RuntimeBufferName = "<runtime>"

// compactRow is one rendered line: a diagnostic or one of its notes.
type compactRow struct {
	sev     string
	rank    int
	code    string
	path    string
	line    uint32
	col     uint32
	located bool
	msg     string
}

func (r compactRow) where() string {
	if !r.located {
		return "kiln"
	}
	return fmt.Sprintf("%s:%d:%d", r.path, r.line, r.col)
}

// FormatGoldenDiagnostics renders one line per diagnostic for golden files:
// "<sev> <code> <path>:<line>:<col> <message>". Diagnostics inside the
// runtime buffer and diagnostics without a location are left out.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return renderCompact(diags, fs, includeNotes, true)
}

// FormatShortDiagnostics is the CLI short form. It keeps everything;
// diagnostics without a location print "kiln" in place of the position.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return renderCompact(diags, fs, includeNotes, false)
}

func renderCompact(diags []Diagnostic, fs *source.FileSet, includeNotes, golden bool) string {
	rows := make([]compactRow, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		row := locate(fs, d.Primary)
		if golden && (!row.located || row.path == RuntimeBufferName) {
			continue
		}
		row.sev, row.rank = strings.ToLower(d.Severity.String()), severityRank(d.Severity)
		row.code, row.msg = d.Code.ID(), flatten(d.Message)
		rows = append(rows, row)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			nr := locate(fs, n.Span)
			if golden && (!nr.located || nr.path == RuntimeBufferName) {
				continue
			}
			nr.sev, nr.rank = "note", 3
			nr.code, nr.msg = row.code, flatten(n.Msg)
			rows = append(rows, nr)
		}
	}

	// без позиции - в конец, остальные по месту и важности
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.located != b.located:
			return a.located
		case a.path != b.path:
			return a.path < b.path
		case a.line != b.line:
			return a.line < b.line
		case a.col != b.col:
			return a.col < b.col
		case a.rank != b.rank:
			return a.rank < b.rank
		case a.code != b.code:
			return a.code < b.code
		}
		return a.msg < b.msg
	})

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%s %s %s %s", r.sev, r.code, r.where(), r.msg)
	}
	return strings.Join(lines, "\n")
}

func locate(fs *source.FileSet, span source.Span) compactRow {
	if fs == nil || (span.Start == 0 && span.End == 0) {
		return compactRow{}
	}
	f := fs.Get(span.File)
	if f == nil {
		return compactRow{}
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(f.FormatPath("relative", fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return compactRow{path: path, line: start.Line, col: start.Col, located: true}
}

func severityRank(sev Severity) int {
	switch sev {
	case SevError:
		return 0
	case SevWarning:
		return 1
	default:
		return 2
	}
}

// flatten keeps a message on one line.
func flatten(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
