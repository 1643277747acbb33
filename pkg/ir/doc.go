// Package ir holds the data model shared by the fmigen compiler, the
// description synthesizer and the plugin runtime.
//
// This package contains type definitions and small pure helpers only. It
// imports nothing from the rest of the module so that generated plugin code
// can depend on it without pulling in the toolchain.
//
// Key constraints:
//   - A Table never contains Ignore-causality variables
//   - Value references within a Table are expected to be unique; the table
//     does not verify it (see compiler.Validate)
//   - Output indices are 1-based positions in table order
//   - All JSON tags use snake_case
package ir
