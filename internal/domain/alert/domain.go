package alert

import (
	"strings"
	"time"
)

// Priority is a closed set; anything the caller sends that does not match
// collapses to PriorityMedium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const DefaultTitle = "Alert"

func NormalizePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Alert is an immutable record of the append-only log. ID and CreatedAt are
// assigned by the store at append time and never change.
type Alert struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"timestamp"`
}

// Candidate is what a publisher submits; everything is optional and gets
// normalized before the append.
type Candidate struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

func (c Candidate) Normalize() Candidate {
	out := c
	out.Title = strings.TrimSpace(c.Title)
	if out.Title == "" {
		out.Title = DefaultTitle
	}
	out.Priority = string(NormalizePriority(c.Priority))
	return out
}
