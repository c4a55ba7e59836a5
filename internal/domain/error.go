package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrActiveChatExists     = errors.New("user already has an active chat session")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrExpiredSubscription  = errors.New("subscription has expired")
	ErrPlanMisconfigured    = errors.New("plan has no provider price id")
	ErrEventUnverified      = errors.New("webhook event failed verification")

	// Infra-level errors surfaced through repository ports
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
