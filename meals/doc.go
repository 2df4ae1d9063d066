// Package meals holds the commands, queries, events and handlers of the meal tracker.
// Handlers receive their collaborators through Deps at construction time.
package meals
