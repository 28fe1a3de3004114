package model

import (
	"errors"
	"fmt"
)

// Kind classifies the failures callers can react to.
type Kind int

const (
	KindUnknown Kind = iota
	RegistryLoadFailed
	UnknownModel
	InvalidInputType
	InvalidInputShape
	PredictionFailed
)

func (k Kind) String() string {
	switch k {
	case RegistryLoadFailed:
		return "RegistryLoadFailed"
	case UnknownModel:
		return "UnknownModel"
	case InvalidInputType:
		return "InvalidInputType"
	case InvalidInputShape:
		return "InvalidInputShape"
	case PredictionFailed:
		return "PredictionFailed"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every operation in this package.
type Error struct {
	Kind  Kind
	Model Name
	Msg   string
	Err   error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrRegistryLoadFailed = &Error{Kind: RegistryLoadFailed}
	ErrUnknownModel       = &Error{Kind: UnknownModel}
	ErrInvalidInputType   = &Error{Kind: InvalidInputType}
	ErrInvalidInputShape  = &Error{Kind: InvalidInputShape}
	ErrPredictionFailed   = &Error{Kind: PredictionFailed}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, name Name, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Model: name, Msg: fmt.Sprintf(format, args...), Err: err}
}
