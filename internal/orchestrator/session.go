package orchestrator

import (
	"time"

	"github.com/fyrsmithlabs/mentord/internal/learner"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
	"github.com/google/uuid"
)

// SessionState is a snapshot of one session. Snapshots never alias orchestrator state.
type SessionState struct {
	ID               string           `json:"id"`
	Mode             Mode             `json:"mode"`
	Stage            Stage            `json:"stage"`
	StageEnteredAt   time.Time        `json:"stageEnteredAt"`
	ExplanationLevel ExplanationLevel `json:"explanationLevel"`
	Problem          *Problem         `json:"problem,omitempty"`
	Solution         *Solution        `json:"solution,omitempty"`
	Error            string           `json:"error,omitempty"`
	Trace            []tracelog.Entry `json:"trace"`
	Progress         learner.Progress `json:"progress"`
	MemorySize       int              `json:"memorySize"`
}

// session is the mutable state behind a SessionState. Guarded by Orchestrator.mu.
type session struct {
	id        string
	mode      Mode
	stage     Stage
	enteredAt time.Time
	problem   *Problem
	solution  *Solution
	err       error
	trace     *tracelog.Log
}

func newSession(mode Mode, now func() time.Time) *session {
	return &session{
		id:        uuid.New().String(),
		mode:      mode,
		stage:     StageIdle,
		enteredAt: now(),
		trace:     tracelog.New(tracelog.WithClock(now)),
	}
}

func (s *session) snapshot() SessionState {
	st := SessionState{
		ID:             s.id,
		Mode:           s.mode,
		Stage:          s.stage,
		StageEnteredAt: s.enteredAt,
		Trace:          s.trace.Entries(),
	}
	if s.problem != nil {
		p := s.problem.clone()
		st.Problem = &p
	}
	if s.solution != nil {
		sol := s.solution.clone()
		st.Solution = &sol
	}
	if s.err != nil {
		st.Error = UserMessage(s.err)
	}
	return st
}
