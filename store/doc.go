// Package store holds the meal persistence models and the unit of work command handlers run in.
//
// A unit of work is scoped to a single Send call: Do begins it, hands the named repositories
// to the callback, commits on success and rolls back on error or panic.
package store
