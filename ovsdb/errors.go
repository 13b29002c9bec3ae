package ovsdb

import (
	"errors"
	"fmt"
)

// decode error kinds. A decode error is always local to the value that
// failed. Nothing in this package panics on malformed input.
const (
	ErrInvalidLength = ErrorKind("invalid_length")
	ErrUnknownEncoding = ErrorKind("unknown_encoding")
	ErrMalformedUuid = ErrorKind("malformed_uuid")
	ErrTypeMismatch = ErrorKind("type_mismatch")
	ErrUnknownSubscription = ErrorKind("unknown_subscription")
	ErrMissingRowDiff = ErrorKind("missing_row_diff")
)

type ErrorKind string

type DecodeError struct {
	Kind ErrorKind
	Table string
	Column string
	Row string
	Message string
}

func newDecodeError(kind ErrorKind, format string, a ...any) *DecodeError {
	return &DecodeError{
		Kind: kind,
		Message: fmt.Sprintf(format, a...),
	}
}

// annotates an error bubbling up from a cell decode with its position.
// Non decode errors pass through unchanged.
func annotateDecodeError(err error, table string, column string, row string) error {
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		return err
	}
	annotated := *decodeErr
	if annotated.Table == "" {
		annotated.Table = table
	}
	if annotated.Column == "" {
		annotated.Column = column
	}
	if annotated.Row == "" {
		annotated.Row = row
	}
	return &annotated
}

func (self *DecodeError) Error() string {
	at := ""
	if self.Table != "" {
		at = fmt.Sprintf(" table=%s", self.Table)
	}
	if self.Row != "" {
		at = fmt.Sprintf("%s row=%s", at, self.Row)
	}
	if self.Column != "" {
		at = fmt.Sprintf("%s column=%s", at, self.Column)
	}
	return fmt.Sprintf("%s: %s%s", self.Kind, self.Message, at)
}

// IsDecodeError returns the typed decode error if `err` carries one.
func IsDecodeError(err error) (*DecodeError, bool) {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr, true
	}
	return nil, false
}
