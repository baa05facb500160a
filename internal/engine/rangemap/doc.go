// Package rangemap provides ordered byte-range containers for annotating a
// linear address space.
//
// Two containers are provided:
//
//   - Set: a set of disjoint byte ranges, with touching ranges merged.
//   - Map: an association from disjoint byte ranges to values, with adjacent
//     equal-valued entries merged and partial overwrites split.
//
// Both adjust themselves for data being inserted into or erased from the
// underlying byte sequence via DataInserted and DataErased, so annotations
// stay attached to the bytes they describe as the sequence changes length.
//
// Lookups are O(log n); mutations are O(n) in the number of stored entries.
// Neither container is safe for concurrent mutation.
package rangemap
