package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients
// - Meta: optional details (field, reason, store detail)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err is a domain error carrying code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Error codes shared between packages and tests.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeBodyTooLarge     = "body_too_large"
	CodeInvalidInput     = "invalid_input"
	CodeValidationFailed = "validation_failed"

	CodeUserNotFound  = "user_not_found"
	CodeWrongPassword = "wrong_password"

	CodeTokenMissing          = "token_missing"
	CodeTokenMalformed        = "token_malformed"
	CodeTokenMissingClaims    = "token_missing_claims"
	CodeTokenInvalidSignature = "token_invalid_signature"
	CodeTokenExpired          = "token_expired"
	CodeTokenNotYetValid      = "token_not_yet_valid"
	CodeTokenIssuerMismatch   = "token_issuer_mismatch"
	CodeTokenAudienceMismatch = "token_audience_mismatch"

	CodeCreateConflict   = "create_conflict"
	CodeCreateFailed     = "create_failed"
	CodeRoleAssignFailed = "role_assign_failed"
	CodeRateLimited      = "rate_limited"

	CodeStoreUnavailable = "store_unavailable"
	CodeHashFailed       = "hash_failed"
	CodeTokenSignFailed  = "token_sign_failed"
	CodeInternal         = "internal_error"
)

// Login failure messages. The two are deliberately distinct: callers can
// tell an unknown account from a bad password.
const (
	MsgInvalidUsernameOrMail = "Invalid Username or Mail"
	MsgWrongPassword         = "Wrong Password"
)

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, CodeInvalidJSON, "invalid JSON body", cause)
}

func ErrBodyTooLarge(limit int64) *Error {
	return WithMeta(New(KindValidation, CodeBodyTooLarge, "request body too large"), map[string]string{
		"limit_bytes": strconv.FormatInt(limit, 10),
	})
}

func ErrInvalidInput(reason string) *Error {
	return WithMeta(New(KindValidation, CodeInvalidInput, "invalid input"), map[string]string{
		"reason": reason,
	})
}

// ErrValidation lists every violated field with a human readable reason.
func ErrValidation(fields map[string]string) *Error {
	return WithMeta(New(KindValidation, CodeValidationFailed, "one or more validation errors occurred"), fields)
}

// ----------------------
// Auth errors (401)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindAuth, CodeUserNotFound, MsgInvalidUsernameOrMail)
}

func ErrWrongPassword() *Error {
	return New(KindAuth, CodeWrongPassword, MsgWrongPassword)
}

func ErrTokenMissing() *Error {
	return New(KindAuth, CodeTokenMissing, "no token provided")
}

func ErrTokenMalformed(cause error) *Error {
	return Wrap(KindAuth, CodeTokenMalformed, "malformed token", cause)
}

func ErrTokenMissingClaims(claim string) *Error {
	return WithMeta(New(KindAuth, CodeTokenMissingClaims, "token is missing required claims"), map[string]string{
		"claim": claim,
	})
}

func ErrTokenInvalidSignature(cause error) *Error {
	return Wrap(KindAuth, CodeTokenInvalidSignature, "token signature is invalid", cause)
}

func ErrTokenExpired() *Error {
	return New(KindAuth, CodeTokenExpired, "token is expired")
}

func ErrTokenNotYetValid() *Error {
	return New(KindAuth, CodeTokenNotYetValid, "token is not valid yet")
}

func ErrTokenIssuerMismatch() *Error {
	return New(KindAuth, CodeTokenIssuerMismatch, "token issuer is not accepted")
}

func ErrTokenAudienceMismatch() *Error {
	return New(KindAuth, CodeTokenAudienceMismatch, "token audience is not accepted")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrCreateConflict(detail string) *Error {
	return WithMeta(New(KindConflict, CodeCreateConflict, "user already exists"), map[string]string{
		"detail": detail,
	})
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, CodeRateLimited, "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Store / internal (5xx)
// ----------------------

func ErrCreateFailed(cause error) *Error {
	e := Wrap(KindInternal, CodeCreateFailed, "user creation failed", cause)
	if d, ok := safeDetail(cause); ok {
		e.Meta = map[string]string{"detail": d}
	}
	return e
}

func ErrRoleAssignFailed(role string, cause error) *Error {
	e := Wrap(KindInternal, CodeRoleAssignFailed, "role assignment failed", cause)
	e.Meta = map[string]string{"role": role}
	if d, ok := safeDetail(cause); ok {
		e.Meta["detail"] = d
	}
	return e
}

// safeDetail returns the client-safe message of a domain cause. Raw driver
// or library text stays in Cause and only reaches the server log.
func safeDetail(cause error) (string, bool) {
	var de *Error
	if errors.As(cause, &de) && de.Message != "" {
		return de.Message, true
	}
	return "", false
}

func ErrStoreUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, CodeStoreUnavailable, "credential store unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, CodeHashFailed, "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, CodeTokenSignFailed, "token signing failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, CodeInternal, "internal error", cause)
}
