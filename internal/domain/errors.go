package domain

import "errors"

// Business error set. Handlers map these to HTTP statuses with errors.Is;
// anything outside this set is treated as an internal fault.
var (
	ErrValidation          = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrSignatureInvalid    = errors.New("signature verification failed")
	ErrExternalService     = errors.New("external service unavailable")

	// ErrAlreadyProcessed marks an idempotent no-op: the requested effect has
	// already been applied. Callers treat it as success, tests can tell it
	// apart from a first-time execution.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrConcurrentUpdate signals a lost compare-and-swap on a balance row.
	// The ledger retries internally; it only escapes after retries run out.
	ErrConcurrentUpdate = errors.New("concurrent balance update")
)

// Token errors.
var (
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
)
