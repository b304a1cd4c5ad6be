package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotConfigured      = errors.New("collaborator not configured")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Scheduling and publication errors
	ErrSlotAlreadyFilled = errors.New("slot already has a post for this day")
	ErrNoCategory        = errors.New("slot has no category assigned")
	ErrNoEligiblePrompts = errors.New("no active prompts for category")
	ErrEmptyContent      = errors.New("post content is empty")
	ErrPostAlreadyPosted = errors.New("post has already been published")
	ErrExecutionLocked   = errors.New("post is being executed by another worker")
)
