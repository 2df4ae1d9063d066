/*
Package servicebus is the in-process mediator of the meal backend.

Commands and queries are routed by their concrete type to exactly one handler through Send.
Domain events are fanned out through Publish to every subscriber of their concrete type,
concurrently and with failures isolated per subscriber. A command handler links the two by
returning a bus.Outcome (or, for older handlers, a list of events or a map with an "events" key):
the embedded events are published before Send returns.

Registries are filled once at the composition root and are read-only afterwards; see Freeze.
*/
package servicebus
