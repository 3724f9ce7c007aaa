// Package stages holds the transform stages a session registers in its
// pipeline. Each stage works on one declaration group at a time and may
// rewrite it in place.
package stages
