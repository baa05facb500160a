// Package history provides the transaction log behind undo and redo.
//
// # Overview
//
// Every change to a document happens inside a Transaction. A transaction
// carries two things: a snapshot of the surrounding state taken when it
// opened, and a list of Ops that revert its data edits. Undo first restores
// the snapshot, then applies the ops in reverse order; each application
// returns the inverse op, which accumulates into the redo transaction.
//
// The snapshot type is a parameter, so the package knows nothing about what
// state the owner chooses to capture. Ops replay against a small Target
// interface whose mutators touch data and dirty state only, which is what
// makes restoring the snapshot before replaying the ops sound.
//
// Stack pairs the undo and redo stacks with a depth limit. Pushing a new
// transaction clears the redo stack; the PushRedo and PushUndo counterparts
// used during undo and redo do not.
package history
