package engine

import "strings"

// ProviderError marks a failure confined to a single provider. The aggregator
// logs it and carries on with the remaining providers.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Provider + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// ConfigError reports missing required environment variables. Fatal at startup.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// DatastoreReadError fails the whole request before any insert is attempted.
type DatastoreReadError struct {
	Err error
}

func (e *DatastoreReadError) Error() string { return "datastore read: " + e.Err.Error() }
func (e *DatastoreReadError) Unwrap() error { return e.Err }

// DatastoreWriteError fails the request; batches inserted before the failure
// stay in the datastore.
type DatastoreWriteError struct {
	Err error
}

func (e *DatastoreWriteError) Error() string { return "datastore write: " + e.Err.Error() }
func (e *DatastoreWriteError) Unwrap() error { return e.Err }

// ValidationError rejects a request before any outbound call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
