package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
	KindUnauthenticated
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_failed"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// FieldError describes one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Error is a business-rule failure raised at the point of detection and
// mapped to a transport status at the boundary.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrRideNotFound         = newError(KindNotFound, "ride_not_found", "ride not found")
	ErrBookingNotFound      = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrNotificationNotFound = newError(KindNotFound, "notification_not_found", "notification not found")
	ErrUserNotFound         = newError(KindNotFound, "user_not_found", "user not found")

	ErrSelfBooking        = newError(KindForbidden, "self_booking", "you cannot book your own ride")
	ErrNotParticipant     = newError(KindForbidden, "not_participant", "you are not part of this booking")
	ErrNotRideDriver      = newError(KindForbidden, "not_ride_driver", "only the ride's driver can do this")
	ErrNotRideOwner       = newError(KindForbidden, "not_ride_owner", "you do not own this ride")
	ErrDriverRoleRequired = newError(KindForbidden, "driver_role_required", "driver role required")

	ErrSeatsExhausted      = newError(KindConflict, "seats_exhausted", "no seats available on this ride")
	ErrDuplicateBooking    = newError(KindConflict, "duplicate_booking", "you already have a booking for this ride")
	ErrAlreadyCancelled    = newError(KindConflict, "already_cancelled", "booking is already cancelled")
	ErrInvalidTransition   = newError(KindConflict, "invalid_transition", "booking cannot move to the requested status")
	ErrBookingNotConfirmed = newError(KindConflict, "booking_not_confirmed", "only confirmed bookings can be reviewed")
	ErrRideNotCompleted    = newError(KindConflict, "ride_not_completed", "the ride has not taken place yet")
	ErrReviewWindowClosed  = newError(KindConflict, "review_window_closed", "the review period for this ride has expired")
	ErrDuplicateReview     = newError(KindConflict, "duplicate_review", "you already reviewed this booking")

	ErrSelfReview            = newError(KindValidation, "self_review", "you cannot review yourself")
	ErrSubjectNotParticipant = newError(KindValidation, "subject_not_participant", "the reviewed user is not part of this booking")

	ErrUnauthenticated = newError(KindUnauthenticated, "unauthenticated", "missing or invalid credentials")
)

// Validation builds a ValidationFailed error with one entry per field.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: "validation failed", Fields: fields}
}

// Unavailable wraps a storage collaborator failure.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Code: "unavailable", Message: op, Err: err}
}

// Unauthenticated wraps a token verification failure.
func Unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Code: ErrUnauthenticated.Code, Message: ErrUnauthenticated.Message, Err: err}
}

// KindOf returns the kind of err, KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
