package types

// Event is a component-to-host notification (state change, pattern step).
// Payload is one of the typed values in this package.
type Event struct {
	Kind    Kind
	Name    string
	Payload any
	TSms    int64
}
