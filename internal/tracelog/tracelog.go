// Package tracelog provides the append-only record of pipeline events for one session.
//
// Entry timestamps never decrease in emission order: the wall clock is clamped
// to the previous entry's timestamp. Entries are never removed or changed.
package tracelog

import (
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Severity classifies an entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	idPrefix = "tr"
	idLength = 21
)

// Entry is one trace record. Stage names the emitting agent (System, Parser, Router, ...).
type Entry struct {
	ID        string    `json:"id"`
	Stage     string    `json:"stage"`
	Action    string    `json:"action"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Log is an ordered, append-only list of entries. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records an entry and returns it.
func (l *Log) Append(stage, action string, severity Severity) Entry {
	return l.AppendDetail(stage, action, severity, "")
}

// AppendDetail records an entry carrying extra details.
func (l *Log) AppendDetail(stage, action string, severity Severity, details string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if n := len(l.entries); n > 0 && ts.Before(l.entries[n-1].Timestamp) {
		ts = l.entries[n-1].Timestamp
	}

	e := Entry{
		ID:        newID(),
		Stage:     stage,
		Action:    action,
		Severity:  severity,
		Timestamp: ts,
		Details:   details,
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of all entries in emission order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func newID() string {
	id, err := nanoid.New(idLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return idPrefix + "_" + id
}
