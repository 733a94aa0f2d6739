package store

import "errors"

// ErrorClassifier allows errors to declare their classification for status mapping.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error. Known kinds:
	// "configuration" (fatal for the current planning pass), "transient"
	// (retried on the next cycle), "upload" (recorded on the item).
	ErrorKind() string
}

// IsTransient reports whether an error should be retried on the caller's
// next cycle rather than recorded on an item.
func IsTransient(err error) bool {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind() == "transient"
	}
	return false
}

// IsConfiguration reports whether an error stems from invalid configuration.
func IsConfiguration(err error) bool {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind() == "configuration"
	}
	return false
}
