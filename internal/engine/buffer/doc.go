// Package buffer provides the mutable byte sequence a document edits.
//
// # Overview
//
// The Buffer interface covers the four primitive data operations a document
// performs: read, overwrite, insert and erase. Every operation is strict
// about bounds. A range reaching past the end of the buffer is an error,
// never a partial result, so callers can rely on an operation having either
// happened completely or not at all.
//
// MemBuffer is the standard implementation, holding the entire sequence in
// memory. Files are loaded with NewMemBufferFromFile and written back with
// WriteFile.
package buffer
