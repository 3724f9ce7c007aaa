// Package diag defines the diagnostic model shared by every stage of a
// fragment compilation.
//
// Diagnostic is the central record: Severity, Code (numeric, with a stable
// string form such as SYN2002), Message, the Primary span and optional Notes.
// Spans always point into the session FileSet, so a diagnostic produced for
// input_line_7 keeps resolving after later fragments were added.
//
// Producers never store diagnostics directly. They receive a Reporter and
// either call Report or build one with ReportError/ReportWarning + Emit.
// BagReporter collects into a Bag (sort, dedup, filter). Engine is the
// per-call reporter the incremental driver uses: it counts errors and
// warnings inside a BeginScope/EndScope window and is Reset between calls, so
// nothing leaks from one fragment into the next.
//
// Rendering lives in internal/diagfmt.
package diag
