// Package script runs Lua scripts against a document.
//
// # Overview
//
// Scripts see one global table, "doc", exposing the document's data and
// metadata operations with zero based byte offsets. Binary data crosses
// the boundary as Lua strings, which carry arbitrary bytes.
//
// A run is transactional. The runner opens a transaction named after the
// script, executes it, and commits on success. Any Lua error rolls every
// edit the script made back, so the document is never left half modified.
// A successful run undoes as a single step.
//
// Only the base, table, string and math libraries are available. Scripts
// cannot reach the file system or the process.
package script
