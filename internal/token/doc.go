// Package token defines lexical token kinds and trivia for kiln script.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Type names (int, float, bool, string, void) are keywords; the parser
//     uses them to tell declarations from statements.
//   - A '#' starts a Directive token that runs to the end of the line; the
//     parser interprets its payload (#include, #pragma).
package token
