package family

import "errors"

var (
	ErrValidation              = errors.New("validation failed")
	ErrForbidden               = errors.New("forbidden")
	ErrFamilyNotFound          = errors.New("family not found")
	ErrMembershipNotFound      = errors.New("membership not found")
	ErrAlreadyMember           = errors.New("already an active member of this family")
	ErrInvalidOrExpiredCode    = errors.New("invite code is invalid or expired")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique invite code")
)
