package domain

import "errors"

// Domain errors.
var (
	// ErrNotFound is returned when a cached file cannot be found.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidURL is returned when a request URL is missing or malformed.
	ErrInvalidURL = errors.New("invalid or missing URL parameter")

	// ErrDownloadTimeout is returned when the engine exceeds its deadline.
	ErrDownloadTimeout = errors.New("download timed out")
)

// ExtractionError wraps a failure of the extraction engine (network failure,
// unsupported site, private or removed content, timeout).
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(url string, err error) *ExtractionError {
	return &ExtractionError{URL: url, Err: err}
}

// StoreError wraps a failure of the cache store backing medium.
type StoreError struct {
	Op   string
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Name != "" {
		return e.Op + " " + e.Name + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, name string, err error) *StoreError {
	return &StoreError{Op: op, Name: name, Err: err}
}
