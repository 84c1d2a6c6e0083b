package memory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for memory operations.
var (
	ErrEmptyTrigger      = errors.New("memory trigger cannot be empty")
	ErrEmptyInsight      = errors.New("memory insight cannot be empty")
	ErrInvalidSuccess    = errors.New("success rate must be between 0.0 and 1.0")
	ErrInvalidSource     = errors.New("source must be 'system' or 'user-correction'")
	ErrInvalidIdentifier = errors.New("invalid memory ID format")
)

// Source records where an Item came from.
type Source string

const (
	// SourceSystem marks solver-generated and seeded insights.
	SourceSystem Source = "system"

	// SourceUserCorrection marks insights recorded from a human review correction.
	SourceUserCorrection Source = "user-correction"
)

const (
	// General is the trigger that matches every topic.
	General = "General"

	// MaxRetrieve is the hard cap on items returned by Retrieve.
	MaxRetrieve = 3
)

// Item is one learning memory entry.
type Item struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	Insight     string    `json:"insight"`
	SuccessRate float64   `json:"successRate"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewItem creates a validated Item with a generated UUID.
func NewItem(trigger, insight string, successRate float64, source Source) (*Item, error) {
	item := &Item{
		ID:          uuid.New().String(),
		Trigger:     trigger,
		Insight:     insight,
		SuccessRate: successRate,
		Source:      source,
		CreatedAt:   time.Now(),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks if the item has valid fields.
func (i Item) Validate() error {
	if _, err := uuid.Parse(i.ID); err != nil {
		return ErrInvalidIdentifier
	}
	if i.Trigger == "" {
		return ErrEmptyTrigger
	}
	if i.Insight == "" {
		return ErrEmptyInsight
	}
	if !(i.SuccessRate >= 0 && i.SuccessRate <= 1) {
		return ErrInvalidSuccess
	}
	if i.Source != SourceSystem && i.Source != SourceUserCorrection {
		return ErrInvalidSource
	}
	return nil
}

// Matches reports whether the item applies to topic.
func (i Item) Matches(topic string) bool {
	return i.Trigger == topic || i.Trigger == General
}
