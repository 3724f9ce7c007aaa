package diagfmt

import (
	"encoding/json"
	"io"

	"kiln/internal/diag"
	"kiln/internal/source"
)

// LocationJSON points into a source buffer. Fragment is set for
// interactive buffers (input_line_N), which exist only in the session.
type LocationJSON struct {
	File     string `json:"file"`
	Fragment bool   `json:"fragment,omitempty"`
	Line     uint32 `json:"line,omitempty"`
	Col      uint32 `json:"col,omitempty"`
	EndLine  uint32 `json:"end_line,omitempty"`
	EndCol   uint32 `json:"end_col,omitempty"`
	Text     string `json:"text,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON is one diagnostic. Location is absent for diagnostics of
// the session itself; timing diagnostics carry their report in Timings.
type DiagnosticJSON struct {
	Severity string          `json:"severity"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Location *LocationJSON   `json:"location,omitempty"`
	Notes    []NoteJSON      `json:"notes,omitempty"`
	Timings  json.RawMessage `json:"timings,omitempty"`
}

// DiagnosticsOutput is the document written by JSON for one compile call.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	// Omitted - сколько отрезано лимитом opts.Max
	Omitted int `json:"omitted,omitempty"`
}

func makeLocation(span source.Span, fs *source.FileSet, opts JSONOpts) *LocationJSON {
	if fs == nil || noSpan(span) {
		return nil
	}
	f := fs.Get(span.File)
	if f == nil {
		return nil
	}
	loc := &LocationJSON{
		File:     f.FormatPath(opts.PathMode.String(), fs.BaseDir()),
		Fragment: f.Flags&source.FileFragment != 0,
	}
	if opts.IncludePositions {
		start, end := fs.Resolve(span)
		loc.Line, loc.Col = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
		loc.Text = fs.Text(span)
	}
	return loc
}

// BuildDiagnosticsOutput converts bag without encoding it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	var out DiagnosticsOutput
	if bag == nil {
		out.Diagnostics = []DiagnosticJSON{}
		return out
	}
	items := bag.Items()
	limit := len(items)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}
	out.Diagnostics = make([]DiagnosticJSON, 0, limit)
	for i := range items {
		d := &items[i]
		switch {
		case d.Severity.IsError():
			out.Errors++
		case d.Severity == diag.SevWarning:
			out.Warnings++
		}
		if i >= limit {
			out.Omitted++
			continue
		}
		out.Diagnostics = append(out.Diagnostics, convertDiagnostic(d, fs, opts))
	}
	out.Count = len(out.Diagnostics)
	return out
}

func convertDiagnostic(d *diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	dj := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Location: makeLocation(d.Primary, fs, opts),
	}
	if d.Code == diag.ObsTimings {
		// отчёт таймера лежит в заметке уже в JSON
		for _, n := range d.Notes {
			if json.Valid([]byte(n.Msg)) {
				dj.Timings = json.RawMessage(n.Msg)
				break
			}
		}
		return dj
	}
	if !opts.IncludeNotes {
		return dj
	}
	for _, n := range d.Notes {
		dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(n.Span, fs, opts)})
	}
	return dj
}

// JSON writes the diagnostics of one call as an indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
