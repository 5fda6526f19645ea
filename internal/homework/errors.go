package homework

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind classifies a failure of one poll iteration.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport: the request never produced a response (dial, DNS, timeout, read).
	KindTransport
	// KindProtocol: the API answered with a non-OK status code.
	KindProtocol
	// KindShape: the payload is not shaped like {"homeworks": [...]}.
	KindShape
	// KindEmpty: the payload carries no work items.
	KindEmpty
	// KindMissingField: a work item lacks homework_name or status.
	KindMissingField
	// KindUnknownStatus: the status code is not in the catalog.
	KindUnknownStatus
	// KindDelivery: the notifier could not deliver a message.
	KindDelivery
	// KindInternal: a recovered panic.
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindTransport:     "transport",
	KindProtocol:      "protocol",
	KindShape:         "shape",
	KindEmpty:         "empty",
	KindMissingField:  "missing_field",
	KindUnknownStatus: "unknown_status",
	KindDelivery:      "delivery",
	KindInternal:      "internal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Error is the single error type produced by the poll pipeline.
type Error struct {
	Kind Kind
	// Detail is the short human description for shape/empty/internal failures.
	Detail string
	// Field is set for KindMissingField.
	Field string
	// Status is set for KindUnknownStatus.
	Status string
	// Code is the HTTP status for KindProtocol.
	Code int
	// Err is the underlying cause, if any.
	Err error
}

// Description is the text used in failure notifications.
func (e *Error) Description() string {
	switch e.Kind {
	case KindTransport:
		if e.Err != nil {
			return "api request failed: " + e.Err.Error()
		}
		return "api request failed"
	case KindProtocol:
		return fmt.Sprintf("api returned status %d", e.Code)
	case KindMissingField:
		return fmt.Sprintf("missing field %q", e.Field)
	case KindUnknownStatus:
		return fmt.Sprintf("unknown status %q", e.Status)
	case KindDelivery:
		if e.Err != nil {
			return "delivery failed: " + e.Err.Error()
		}
		return "delivery failed"
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Description() }

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind (and Field/Status when the target sets them).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	if t.Status != "" && t.Status != e.Status {
		return false
	}
	return true
}

func TransportError(err error) *Error { return &Error{Kind: KindTransport, Err: err} }

func ProtocolError(code int) *Error { return &Error{Kind: KindProtocol, Code: code} }

func ShapeError(detail string) *Error { return &Error{Kind: KindShape, Detail: detail} }

func EmptyError(detail string) *Error { return &Error{Kind: KindEmpty, Detail: detail} }

func MissingFieldError(field string) *Error { return &Error{Kind: KindMissingField, Field: field} }

func UnknownStatusError(code string) *Error {
	return &Error{Kind: KindUnknownStatus, Status: code}
}

func DeliveryError(err error) *Error { return &Error{Kind: KindDelivery, Err: err} }

func InternalError(v any) *Error {
	return &Error{Kind: KindInternal, Detail: fmt.Sprintf("internal error: %v", v)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Describe returns the notification description for any error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Description()
	}
	return err.Error()
}
