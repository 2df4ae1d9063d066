package errors

// Error codes for the bus and cache contracts. Keep stable; they are logged and matched by callers.
const (
	ErrCodeNoHandlerRegistered = "mealbus.no_handler_registered"
	ErrCodeHandlerTypeMismatch = "mealbus.handler_type_mismatch"
	ErrCodeRegistryFrozen      = "mealbus.registry_frozen"
	ErrCodeNilEvent            = "mealbus.nil_event"
	ErrCodeSubscriberFailed    = "mealbus.subscriber_failed"
	ErrCodeCacheUnavailable    = "mealbus.cache_unavailable"
	ErrCodeCacheDisabled       = "mealbus.cache_disabled"
	ErrCodeSerializationFailed = "mealbus.serialization_failed"
	ErrCodePublishFailed       = "mealbus.publish_failed"
	ErrCodeUnitOfWorkClosed    = "mealbus.uow_closed"
	ErrCodeNotFound            = "mealbus.not_found"
	ErrCodeInvalidInput        = "mealbus.invalid_input"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	// ErrNoHandlerRegistered is returned by Send for a command or query type nobody registered.
	ErrNoHandlerRegistered = Code(ErrCodeNoHandlerRegistered)
	ErrHandlerTypeMismatch = Code(ErrCodeHandlerTypeMismatch)
	ErrRegistryFrozen      = Code(ErrCodeRegistryFrozen)
	ErrNilEvent            = Code(ErrCodeNilEvent)
	// ErrSubscriberFailed tags subscriber failures in logs. Publish never returns it.
	ErrSubscriberFailed = Code(ErrCodeSubscriberFailed)
	// ErrCacheUnavailable and ErrCacheDisabled are treated as a miss or a no-op by the cache service.
	ErrCacheUnavailable    = Code(ErrCodeCacheUnavailable)
	ErrCacheDisabled       = Code(ErrCodeCacheDisabled)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrUnitOfWorkClosed    = Code(ErrCodeUnitOfWorkClosed)
	ErrNotFound            = Code(ErrCodeNotFound)
	ErrInvalidInput        = Code(ErrCodeInvalidInput)
)
