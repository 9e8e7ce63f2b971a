package crawler

import "errors"

// Errors classifying crawl failures. Callers wrap them with context and match
// them with errors.Is.
var (
	// ErrRequest marks network, timeout and non-2xx failures of a target fetch.
	ErrRequest = errors.New("request failed")
	// ErrDecode marks a failure turning fetched bytes into a document tree.
	ErrDecode = errors.New("decode failed")
	// ErrSelectorNotFound is returned when a selector matches nothing.
	ErrSelectorNotFound = errors.New("selector not found")
	// ErrInvalidSelector is returned when a selector does not compile.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrAttributeMissing is returned when a required attribute is absent.
	ErrAttributeMissing = errors.New("attribute missing")
	// ErrNoNumberFound is returned when a field holds no parsable number.
	ErrNoNumberFound = errors.New("no number found")
	// ErrIncomplete is returned when a node lacks a field the adapter needs
	// or when a record without data is asked for its key.
	ErrIncomplete = errors.New("incomplete record")
	// ErrGeocode marks an unresolvable address or malformed geocoder reply.
	ErrGeocode = errors.New("geocode failed")
	// ErrUnknownAdapter is returned when a target names an unregistered adapter.
	ErrUnknownAdapter = errors.New("unknown adapter")
	// ErrQueueDrained is returned by Dequeue once a closed queue is empty.
	ErrQueueDrained = errors.New("queue drained")
)
