package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMissingCredentials = "MISSING_CREDENTIALS"
	textCodeInvalidFormat      = "INVALID_FORMAT"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	textCodeTokenExpired       = "TOKEN_EXPIRED"
	textCodeTokenMalformed     = "TOKEN_MALFORMED"
	textCodePrincipalNotFound  = "PRINCIPAL_NOT_FOUND"
	textCodeSessionNotFound    = "SESSION_NOT_FOUND"
	textCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	textCodeRoleMismatch       = "ROLE_MISMATCH"
)

// ErrMissingCredentials is returned when no credential was presented at all.
var ErrMissingCredentials = goerrors.New("missing credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeMissingCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidFormat is returned when a submitted secret fails shape validation
// before any hashing is attempted (e.g. a non-numeric or mis-sized PIN).
var ErrInvalidFormat = goerrors.New("credential has an invalid format", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidFormat).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials collapses "unknown identity" and "wrong secret" into a
// single indistinguishable failure. Callers must never be able to tell whether
// an email or admission number exists.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountDeactivated is returned for any operation attempted on behalf of a
// deactivated user, regardless of how valid the presented credential is.
var ErrAccountDeactivated = goerrors.New("account is deactivated", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountDeactivated).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired means the signature checked out but the token is past its
// expiry instant.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed means the token could not be parsed or its signature could
// not be verified.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrPrincipalNotFound means a credential decoded fine but its subject no
// longer resolves to a backing record.
var ErrPrincipalNotFound = goerrors.New("principal not found", goerrors.CategoryAuth).
	WithTextCode(textCodePrincipalNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionNotFound covers both a session id the store has never seen and one
// the store already let expire; browsers holding either get sent back to login.
var ErrSessionNotFound = goerrors.New("session not found or expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrStoreUnavailable signals the session store could not be reached. Unlike
// every other failure in this package it is legitimate to retry with backoff.
var ErrStoreUnavailable = goerrors.New("session store unavailable", goerrors.CategoryInternal).
	WithTextCode(textCodeStoreUnavailable)

// ErrRoleMismatch is the gate's rejection when the resolved principal's role
// is not part of a route's required set.
var ErrRoleMismatch = goerrors.New("role not permitted for this operation", goerrors.CategoryAuth).
	WithTextCode(textCodeRoleMismatch).
	WithCode(goerrors.CodeForbidden)

// ErrNoEmptyString rejects empty secrets before hashing.
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the verifier-level mismatch. The login
// orchestrator collapses it into ErrInvalidCredentials before it ever leaves
// this package through a login path.
var ErrMismatchedHashAndPassword = goerrors.New("hash and secret do not match", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsTokenExpiredError checks for expired tokens, including errors bubbled up
// from the JWT parser.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError checks for unparseable or badly signed tokens.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsStoreUnavailable reports whether err is the one retryable failure.
func IsStoreUnavailable(err error) bool {
	return hasTextCode(err, textCodeStoreUnavailable)
}

// IsAccountDeactivated reports whether err denotes a deactivated account.
func IsAccountDeactivated(err error) bool {
	return hasTextCode(err, textCodeAccountDeactivated)
}

// IsInvalidCredentials reports whether err is the collapsed login failure.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, textCodeInvalidCredentials)
}
