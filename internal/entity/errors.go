package entity

import "errors"

var (
	ErrLeadNotFound         = errors.New("lead not found")
	ErrLeadNotAvailable     = errors.New("lead is not available for purchase")
	ErrAlreadySold          = errors.New("lead has already been sold")
	ErrInvalidTransition    = errors.New("invalid lead state transition")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")
)
