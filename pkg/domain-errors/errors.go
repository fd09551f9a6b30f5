// Package domainerrors carries coded errors across the service boundary.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate them
// into coded errors here so the transport layer can map a Code to a status without
// inspecting messages. EligibilityDenied errors additionally carry a Reason so the
// caller can tell a quota problem from a cooldown or a pending approval.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeEligibilityDenied  Code = "eligibility_denied"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeIntegrityViolation Code = "integrity_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Reason narrows CodeEligibilityDenied.
type Reason string

const (
	ReasonQuotaExceeded   Reason = "quota_exceeded"
	ReasonSaleCooldown    Reason = "sale_cooldown"
	ReasonHoldingPeriod   Reason = "holding_period"
	ReasonPendingApproval Reason = "pending_approval"
	ReasonNotForSale      Reason = "not_for_sale"
	ReasonRestricted      Reason = "restricted_status"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Denied creates an EligibilityDenied error with a reason.
func Denied(reason Reason, msg string) error {
	return &Error{Code: CodeEligibilityDenied, Reason: reason, Message: msg}
}

// CodeOf returns the outermost code in the chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf returns the eligibility reason, if any.
func ReasonOf(err error) Reason {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeEligibilityDenied:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
