package gateway

import "fmt"

// DataFormatError reports an upstream body that could not be parsed.
type DataFormatError struct {
	Resource string
	Err      error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Resource, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Resource   string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d from %s", e.Resource, e.StatusCode, e.URL)
}
