package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the stores and services wraps exactly one of them.
var (
	ErrValidation = fmt.Errorf("validation error")
	ErrNotFound   = fmt.Errorf("not found")
	ErrPermission = fmt.Errorf("permission denied")
	ErrSecurity   = fmt.Errorf("security violation")
	ErrConflict   = fmt.Errorf("conflict")
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrBusFull            = fmt.Errorf("fan-out bus buffer full")
	ErrSubscriptionClosed = fmt.Errorf("bus subscription closed")
	ErrEmptyWords         = fmt.Errorf("no censored words have been found")
	ErrSinkFull           = fmt.Errorf("session send buffer full")
	ErrConnectionClosed   = fmt.Errorf("connection closed")

	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrRecipientNotFound    = fmt.Errorf("recipient %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrGroupNotFound        = fmt.Errorf("group conversation %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrParticipantNotFound  = fmt.Errorf("participant %w", ErrNotFound)

	ErrEmptyMembers       = fmt.Errorf("%w: member list is empty", ErrValidation)
	ErrUnknownMembers     = fmt.Errorf("%w: one or more users not found", ErrValidation)
	ErrBlankContent       = fmt.Errorf("%w: content is blank", ErrValidation)
	ErrContentTooLong     = fmt.Errorf("%w: content too long", ErrValidation)
	ErrSelfConversation   = fmt.Errorf("%w: cannot open a conversation with yourself", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: invalid status transition", ErrValidation)
	ErrInvalidSort        = fmt.Errorf("%w: unsupported sort", ErrValidation)
	ErrInvalidPage        = fmt.Errorf("%w: invalid page request", ErrValidation)
	ErrInvalidReply       = fmt.Errorf("%w: reply target is not in this conversation", ErrValidation)
	ErrInvalidEnum        = fmt.Errorf("%w: unknown enumeration value", ErrValidation)
	ErrAttachmentTooLarge = fmt.Errorf("%w: attachment exceeds size limit", ErrValidation)
	ErrBlankUsername      = fmt.Errorf("%w: username is blank", ErrValidation)
	ErrEmptyTypingTarget  = fmt.Errorf("%w: typing target has neither conversation nor recipient", ErrValidation)

	ErrNotAdmin        = fmt.Errorf("%w: requester is not an active group admin", ErrPermission)
	ErrNotMessageOwner = fmt.Errorf("%w: only the sender can change this message", ErrPermission)

	ErrInactiveParticipant = fmt.Errorf("%w: user is no longer an active participant", ErrSecurity)
	ErrNotParticipant      = fmt.Errorf("%w: sender is not a participant", ErrSecurity)
	ErrInvalidToken        = fmt.Errorf("%w: invalid token", ErrSecurity)

	ErrAlreadyParticipant = fmt.Errorf("%w: user is already an active participant", ErrConflict)
	ErrLastAdmin          = fmt.Errorf("%w: group must keep at least one admin", ErrConflict)
	ErrMessageDeleted     = fmt.Errorf("%w: message is deleted", ErrConflict)
	ErrTooManyRetries     = fmt.Errorf("%w: transaction kept conflicting", ErrConflict)
	ErrUserAlreadyExists  = fmt.Errorf("%w: username already taken", ErrConflict)
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// Kind returns the error kind err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrPermission, ErrSecurity, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
