package bus

// Command is a marker interface for commands (intent to change state).
// A command has exactly one handler; its concrete type is the routing key.
type Command interface{}

// Query is a marker interface for queries. Queries have exactly one handler and must not change state.
type Query interface{}
