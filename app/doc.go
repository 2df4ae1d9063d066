// Package app is the composition root. Build wires a Container from a Config; Configured and
// Lightweight memoize process-wide containers built from the environment.
package app
