package services

import (
	"errors"
	"fmt"

	"aceofspace-go/models"
)

// Kind is the failure class reported in Result.Code.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindExpired      Kind = "expired"
	KindDelivery     Kind = "delivery_failure"
	KindStorage      Kind = "storage_failure"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrNotFound       = errors.New("identity not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUnknownRole    = errors.New("unknown role")
	ErrNotVerified    = errors.New("account not verified")
	ErrBadCredentials = errors.New("bad credentials")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
	ErrDelivery       = errors.New("notification delivery failed")

	ErrOTPNotIssued = errors.New("otp not issued")
	ErrOTPExpired   = errors.New("otp expired")
	ErrInvalidCode  = errors.New("invalid otp")

	ErrInvalidToken    = errors.New("invalid reset token")
	ErrResetExpired    = errors.New("reset token expired")
	ErrWeakPassword    = errors.New("password too short")
	ErrPasswordTooLong = errors.New("password too long")

	ErrKYCNotFound        = errors.New("kyc submission not found")
	ErrKYCConflict        = errors.New("active kyc submission exists")
	ErrInvalidStatus      = errors.New("invalid kyc status")
	ErrAlreadyAdjudicated = errors.New("kyc submission already adjudicated")
)

// validationError carries a caller-facing message and matches ErrValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type failure struct {
	err     error
	kind    Kind
	message string
}

// Order matters: the first match wins, so narrower errors come first.
var failures = []failure{
	{ErrNotFound, KindNotFound, "User not found"},
	{ErrDuplicateEmail, KindConflict, "Email already registered"},
	{ErrUnknownRole, KindValidation, "Role not found. Please contact admin."},
	{ErrNotVerified, KindUnauthorized, "Account not verified. Please verify OTP."},
	{ErrBadCredentials, KindUnauthorized, "Invalid email or password"},
	{ErrUnauthorized, KindUnauthorized, "Unauthorized access"},
	{ErrDelivery, KindDelivery, "Could not send email. Please try again later."},
	{ErrOTPNotIssued, KindValidation, "OTP not generated"},
	{ErrOTPExpired, KindExpired, "OTP expired"},
	{ErrInvalidCode, KindUnauthorized, "Invalid OTP"},
	{ErrInvalidToken, KindUnauthorized, "Invalid or already used reset token"},
	{ErrResetExpired, KindExpired, "Reset token expired, please request again"},
	{ErrWeakPassword, KindValidation, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)},
	{ErrPasswordTooLong, KindValidation, fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes)},
	{ErrKYCNotFound, KindNotFound, "KYC record not found."},
	{ErrKYCConflict, KindConflict, "A KYC submission is already pending or approved."},
	{ErrAlreadyAdjudicated, KindValidation, "KYC submission has already been reviewed."},
	{ErrInvalidStatus, KindValidation, "Invalid status. Must be approved or rejected."},
}

// classify maps an error onto the taxonomy. Unknown errors are storage
// failures and get a generic message.
func classify(err error) (Kind, string, bool) {
	var ve *validationError
	if errors.As(err, &ve) {
		return KindValidation, ve.msg, true
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.kind, f.message, true
		}
	}
	return KindStorage, "Something went wrong", false
}

func failResult(err error) models.Result {
	if errors.Is(err, ErrSessionExpired) {
		return models.SessionExpired("Session expired, please login again", err)
	}
	kind, message, _ := classify(err)
	return models.Fail(string(kind), message, err)
}
