package servicebus

import cbus "github.com/next-trace/scg-meal-bus/contract/bus"

// reservedEventsKey is the map key older handlers use to return domain events.
const reservedEventsKey = "events"

// EmbeddedEvents extracts the domain events a handler result carries.
//
// Recognised shapes, in order: a bus.Outcome (value or pointer); a []bus.DomainEvent;
// a non-empty []any whose every element is a domain event; a map[string]any whose
// "events" value is one of the two list shapes. Anything else carries no events,
// so a plain list or map that merely looks similar is returned to the caller untouched.
func EmbeddedEvents(res any) ([]cbus.DomainEvent, bool) {
	switch v := res.(type) {
	case cbus.Outcome:
		return v.Events, len(v.Events) > 0
	case *cbus.Outcome:
		if v == nil {
			return nil, false
		}

		return v.Events, len(v.Events) > 0
	case map[string]any:
		raw, ok := v[reservedEventsKey]
		if !ok {
			return nil, false
		}

		return eventList(raw)
	default:
		return eventList(res)
	}
}

func eventList(v any) ([]cbus.DomainEvent, bool) {
	switch l := v.(type) {
	case []cbus.DomainEvent:
		return l, len(l) > 0
	case []any:
		if len(l) == 0 {
			return nil, false
		}

		out := make([]cbus.DomainEvent, 0, len(l))
		for _, item := range l {
			e, ok := item.(cbus.DomainEvent)
			if !ok || e == nil {
				return nil, false
			}

			out = append(out, e)
		}

		return out, true
	default:
		return nil, false
	}
}
