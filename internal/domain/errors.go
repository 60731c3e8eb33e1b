package domain

import "errors"

var (
	ErrShiftNotFound  = errors.New("shift not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvariant      = errors.New("invariant violation")
	ErrNoRandomWeapon = errors.New("shift has no random weapon")
)
