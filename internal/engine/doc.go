// Package engine implements the document model for binary file editing.
//
// # Architecture
//
// A Document owns five pieces of state:
//
//   - the byte buffer being edited (package buffer)
//   - comments and highlights, nested by containment (package nestedmap)
//   - data type runs (package rangemap)
//   - virtual address mappings (package vmap)
//   - per-byte dirty stamps (package dirty)
//
// Every mutation runs inside a transaction. Callers can group edits with
// TransactBegin and TransactCommit; a bare edit wraps itself in a
// single-edit transaction. A transaction snapshots the metadata when it
// opens and records an inverse op for each data edit, which is all undo
// needs: restore the snapshot, replay the ops newest first.
//
// Inserting or erasing bytes shifts every annotation behind the edit point.
// Annotations wholly inside an erased range disappear with it; those
// spanning an edit grow or shrink. The type coverage always spans the whole
// document, with inserted bytes entering untyped.
//
// Change notifications queue on the document and are collected with
// DrainEvents; modified data ranges accumulate separately for
// TakeChangedRanges. A Document is not safe for concurrent use.
package engine
