package model

import (
	"time"

	"social-autopost/internal/domain"
)

// Category is a content theme owning prompts and schedule slots.
type Category struct {
	ID          string
	Name        string
	Description string
	Priority    int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCategory(id, name, description string, priority int) (*Category, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if priority <= 0 {
		priority = 1
	}
	now := time.Now()
	return &Category{
		ID:          id,
		Name:        name,
		Description: description,
		Priority:    priority,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
