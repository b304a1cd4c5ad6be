package model

import (
	"strings"
	"time"

	"social-autopost/internal/domain"
)

// Substitution tokens supported by prompt templates.
const (
	TokenDate    = "{date}"
	TokenContext = "{context}"
)

// Prompt is a generation template within a category. Weight is stored as an
// administrative attribute; selection over a category's active prompts is
// uniform-random.
type Prompt struct {
	ID         string
	Name       string
	Content    string
	CategoryID string
	Weight     int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewPrompt(id, name, content, categoryID string, weight int) (*Prompt, error) {
	if id == "" || name == "" || strings.TrimSpace(content) == "" || categoryID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if weight <= 0 {
		weight = 1
	}
	now := time.Now()
	return &Prompt{
		ID:         id,
		Name:       name,
		Content:    content,
		CategoryID: categoryID,
		Weight:     weight,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Render substitutes {date} with the supplied timestamp and, when contextText
// is non-empty, {context} with it. An absent context leaves the token alone,
// matching the strict-replacement contract.
func (p *Prompt) Render(at time.Time, contextText string) string {
	out := strings.ReplaceAll(p.Content, TokenDate, at.Format(time.RFC3339))
	if contextText != "" {
		out = strings.ReplaceAll(out, TokenContext, contextText)
	}
	return out
}
