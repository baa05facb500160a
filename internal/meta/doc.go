// Package meta persists document annotations in a JSON side-car file.
//
// The side-car sits beside the data file it describes and holds four entry
// lists: comments, highlights, data_types and virt_mappings. Offsets are
// bytes into the data file; highlight colours are palette indices. A record
// is validated against the data length on load, and saving an empty record
// deletes the side-car.
package meta
