// Package store implements the versioned task store: atomic check-and-mutate
// on a single task record.
//
// Every mutation of a task id runs under that id's lock, so commits against
// the same task serialize while other tasks proceed independently. Inside the
// lock the store compares the caller's baseline with the stored version,
// applies the mutator to a copy, assigns version+1 and writes with a
// compare-and-swap on the previous version. The commit hook runs before the
// lock is released; whatever it does (broadcasting, typically) observes
// commits of one task in version order.
//
// Titles are unique by their case-folded form. Any commit that sets a title
// takes an additional lock on the folded title and re-checks uniqueness right
// before writing.
package store
