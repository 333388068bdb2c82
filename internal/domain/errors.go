package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "invalid_input"
	KindTranscode            ErrorKind = "transcode"
	KindTranscriptionService ErrorKind = "transcription_service"
	KindEmptyTranscription   ErrorKind = "empty_transcription"
	KindGeocodeService       ErrorKind = "geocode_service"
	KindNoGeocodeMatch       ErrorKind = "no_geocode_match"
	KindRoutingService       ErrorKind = "routing_service"
	KindInternal             ErrorKind = "internal"
)

// Error is a pipeline failure classified by kind. Msg is the text shown to
// the client; Err keeps the underlying cause for logs.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage is the message returned to HTTP clients.
func (e *Error) PublicMessage() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func NewError(kind ErrorKind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
