// Package learner holds the cross-session learner profile: per-topic mastery
// and the learner's known common mistakes.
package learner

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fyrsmithlabs/mentord/internal/config"
)

// DefaultMastery is reported for topics with no recorded mastery.
const DefaultMastery = 50

// Progress is an immutable snapshot of a Profile.
type Progress struct {
	TopicMastery   map[string]int `json:"topicMastery"`
	CommonMistakes []string       `json:"commonMistakes"`
}

// Mastery returns the recorded mastery for topic, or DefaultMastery when absent.
func (p Progress) Mastery(topic string) int {
	if v, ok := p.TopicMastery[topic]; ok {
		return v
	}
	return DefaultMastery
}

// Profile is the shared learner profile. Safe for concurrent use.
type Profile struct {
	mu       sync.RWMutex
	mastery  map[string]int
	mistakes []string
}

// NewProfile creates a profile. Mastery values must be within 0-100.
func NewProfile(mastery map[string]int, mistakes []string) (*Profile, error) {
	for topic, v := range mastery {
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("mastery for %q must be 0-100, got %d", topic, v)
		}
	}
	m := maps.Clone(mastery)
	if m == nil {
		m = map[string]int{}
	}
	return &Profile{mastery: m, mistakes: slices.Clone(mistakes)}, nil
}

// FromConfig builds a profile from the learner section of config.yaml.
func FromConfig(cfg config.LearnerConfig) (*Profile, error) {
	return NewProfile(cfg.Mastery, cfg.CommonMistakes)
}

// Mastery returns the mastery for topic, or DefaultMastery when absent.
// A recorded value of 0 is returned as 0.
func (p *Profile) Mastery(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.mastery[topic]; ok {
		return v
	}
	return DefaultMastery
}

// Snapshot returns a deep copy of the profile.
func (p *Profile) Snapshot() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Progress{
		TopicMastery:   maps.Clone(p.mastery),
		CommonMistakes: slices.Clone(p.mistakes),
	}
}
