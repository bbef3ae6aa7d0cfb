package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeRequired     = "REQUIRED"
	CodeInvalidType  = "INVALID_TYPE"
	CodeInvalidValue = "INVALID_VALUE"
	CodeTooLong      = "TOO_LONG"
	CodeOutOfRange   = "OUT_OF_RANGE"
	CodeDuplicate    = "DUPLICATE_IN_FILE"
	CodeExists       = "ALREADY_EXISTS"
	CodeNotFound     = "REFERENCE_NOT_FOUND"
	CodeRejected     = "REJECTED"
)

var (
	ErrEmptyFile       = errors.New("csv file is empty")
	ErrInvalidEncoding = errors.New("csv file is not valid UTF-8")
	ErrMissingHeader   = errors.New("csv file has no header row")
	ErrMalformedRow    = errors.New("malformed csv row")
	ErrTooManyRows     = errors.New("csv file has too many rows")
)

// RowError describes a problem with one cell or row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Errors keeps the first max row errors and counts the rest
type Errors struct {
	items []RowError
	max   int
	total int
}

// NewErrors creates a collection holding at most max errors
func NewErrors(max int) *Errors {
	if max <= 0 {
		max = 100
	}
	return &Errors{max: max}
}

// Add records an error
func (e *Errors) Add(err RowError) {
	e.total++
	if len(e.items) < e.max {
		e.items = append(e.items, err)
	}
}

// Items returns the retained errors
func (e *Errors) Items() []RowError {
	return e.items
}

// Total counts every error added, retained or not
func (e *Errors) Total() int {
	return e.total
}

// Truncated reports whether errors were dropped
func (e *Errors) Truncated() bool {
	return e.total > len(e.items)
}
