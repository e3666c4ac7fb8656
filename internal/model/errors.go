package model

import "errors"

// domainErrors lists every sentinel error that represents a business outcome
// rather than a storage failure.
var domainErrors = []error{
	ErrUserNotFound,
	ErrExternalUIDRequired,
	ErrEmailRequired,
	ErrPostNotFound,
	ErrNotPostOwner,
	ErrVideoURLRequired,
	ErrCaptionTooLong,
	ErrCommentNotFound,
	ErrTextRequired,
	ErrTextTooLong,
	ErrCannotFollowSelf,
	ErrFileTooLarge,
	ErrInvalidVideoType,
	ErrInvalidImageType,
}

// IsDomainError reports whether err wraps one of the domain sentinels.
// Transient-retry logic uses this to avoid re-running operations that failed
// for a business reason.
func IsDomainError(err error) bool {
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
