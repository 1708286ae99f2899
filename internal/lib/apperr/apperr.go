// Package apperr classifies failures of the production workflow so that the
// HTTP layer can pick a status code without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindBusinessRule Kind = "business_rule"
	KindInternal     Kind = "internal"
)

// Error codes surfaced in the "error" field of the response envelope.
const (
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeStageNotFound     = "STAGE_NOT_FOUND"
	CodeTrackingNotFound  = "TRACKING_NOT_FOUND"
	CodeWorkerNotFound    = "WORKER_NOT_FOUND"
	CodeStationNotFound   = "STATION_NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeMaterialShortage  = "MATERIAL_SHORTAGE"
	CodeOrderClosed       = "ORDER_CLOSED"
	CodeAlreadyStarted    = "PRODUCTION_ALREADY_STARTED"
	CodeNotStarted        = "PRODUCTION_NOT_STARTED"
	CodeNoActiveStages    = "NO_ACTIVE_STAGES"
	CodeStageInProgress   = "STAGE_ALREADY_IN_PROGRESS"
	CodeResourceOccupied  = "RESOURCE_OCCUPIED"
	CodeInternal          = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string, err error) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

func BusinessRule(code, message string) *Error {
	return New(KindBusinessRule, code, message)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// As returns the classified error, treating anything unclassified as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
