package auth

import (
	"crypto/rand"
	"math/big"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// PinMinLength and PinMaxLength bound the student PIN factor.
	PinMinLength = 4
	PinMaxLength = 8
	// DefaultPinLength is the digit count of freshly generated PINs.
	DefaultPinLength = 6
)

// HashSecret generates a salted bcrypt digest for a password or PIN. Both
// factors share this path; idempotency (no re-hash on unchanged records) is
// the caller's responsibility since a digest is indistinguishable from input
// here.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), secretHashCost())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash secret")
	}
	return string(h), nil
}

// CompareSecretAndHash validates the given cleartext secret against the
// stored digest.
func CompareSecretAndHash(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare secret")
	}
	return nil
}

// ValidatePin enforces the PIN shape: numeric characters only, 4 to 8 digits.
// No hashing is attempted for inputs that fail here.
func ValidatePin(pin string) error {
	err := validation.Validate(pin,
		validation.Required,
		validation.Length(PinMinLength, PinMaxLength),
		is.Digit,
	)
	if err != nil {
		return ErrInvalidFormat.Clone().WithMetadata(map[string]any{
			"field":  "pin",
			"detail": err.Error(),
		})
	}
	return nil
}

// HashPin validates the PIN shape and hashes it through the shared path.
func HashPin(pin string) (string, error) {
	if err := ValidatePin(pin); err != nil {
		return "", err
	}
	return HashSecret(pin)
}

// ComparePinAndHash validates the submitted PIN's shape, then compares it to
// the stored digest.
func ComparePinAndHash(pin, hash string) error {
	if err := ValidatePin(pin); err != nil {
		return err
	}
	return CompareSecretAndHash(pin, hash)
}

// RandomPin generates a fresh numeric PIN of DefaultPinLength digits using a
// CSPRNG. Used by admin-driven PIN resets; the cleartext is returned exactly
// once so it can be handed to the student, then only the hash survives.
func RandomPin() (string, error) {
	digits := make([]byte, DefaultPinLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate PIN")
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
