package reader

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("reader: session closed")

// ErrNotOpen is returned by navigation before Open.
var ErrNotOpen = errors.New("reader: no thread open")

// FetchError records a failed network load of one thread page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("loading page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
