package apperror

import (
	"errors"
	"fmt"
)

// Codes sent to clients in error frames and REST error bodies.
const (
	CodeInvalidRoom        = "INVALID_ROOM"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeGenerationFailure  = "GENERATION_FAILURE"
	CodeDeliveryFailure    = "DELIVERY_FAILURE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeBadFrame           = "BAD_FRAME"
	CodeUnsupportedEvent   = "UNSUPPORTED_EVENT"
	CodeInternal           = "INTERNAL"
)

var (
	ErrInvalidRoom        = errors.New("invalid room identifier")
	ErrUnauthenticated    = errors.New("authorization error")
	ErrGenerationFailure  = errors.New("ai generation failed")
	ErrDeliveryFailure    = errors.New("recipient unreachable")
	ErrPersistenceFailure = errors.New("file tree persistence failed")
	ErrNotFound           = errors.New("resource not found")
	ErrBadRequest         = errors.New("bad request")
	ErrBadFrame           = errors.New("malformed frame")
	ErrUnsupportedEvent   = errors.New("unsupported event type")
)

// Wrap attaches a taxonomy sentinel to a cause so errors.Is works on both.
func Wrap(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Code maps an error onto its wire code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRoom):
		return CodeInvalidRoom
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrGenerationFailure):
		return CodeGenerationFailure
	case errors.Is(err, ErrDeliveryFailure):
		return CodeDeliveryFailure
	case errors.Is(err, ErrPersistenceFailure):
		return CodePersistenceFailure
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	case errors.Is(err, ErrBadFrame):
		return CodeBadFrame
	case errors.Is(err, ErrUnsupportedEvent):
		return CodeUnsupportedEvent
	default:
		return CodeInternal
	}
}
