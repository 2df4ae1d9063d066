package bus

// Outcome is the typed envelope a command handler returns when it wants domain events
// published after it completes. The bus publishes Events before Send returns and hands
// the whole Outcome back to the caller.
type Outcome struct {
	Payload any
	Events  []DomainEvent
}

// NewOutcome builds an Outcome from a payload and the events it produced.
func NewOutcome(payload any, events ...DomainEvent) Outcome {
	return Outcome{Payload: payload, Events: events}
}
