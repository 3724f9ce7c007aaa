// Package sema elaborates kiln script declarations against one persistent
// universe of globals. Every fragment of a session is checked against the
// same universe; Mark and Rollback let the caller forget what a failed
// fragment declared.
//
// Identifiers are resolved in order: enclosing local scopes, the universe
// (builtins first), the external declaration source and finally the
// installed ExternalResolver, which may defer the name to run time.
package sema
