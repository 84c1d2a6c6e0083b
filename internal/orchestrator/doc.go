// Package orchestrator runs a learner's problem through the mentoring pipeline.
//
// # Pipeline
//
// A submission moves through these stages:
//
//	Idle → Parsing → (AwaitingReview) → Routing → Solving → Completed
//
// Any stage may end in Error. Parsing calls the ParserAgent. The
// ConfidenceGate then either routes the Problem straight to solving or
// suspends the session in AwaitingReview until ResolveReview or CancelReview.
// Routing reads the learner's mastery for the topic. Solving retrieves up to
// memory.MaxRetrieve learning memory items and calls the SolverAgent.
//
// # Learning Memory
//
// Two events write to the shared memory store:
//   - A solution carrying a generated insight, stored with source "system"
//   - A review that changes the parsed text, stored with source "user-correction"
//
// # Concurrency
//
// The Orchestrator is safe for concurrent use. Collaborators run without the
// lock held. Submit, CancelReview and Reset start a new session generation,
// and a collaborator result for an older generation is dropped with
// ErrSuperseded.
//
// # Errors
//
//   - *ValidationError: empty or malformed input, session moves to Error
//   - *AgentError: collaborator failure, session moves to Error
//   - *StateError: operation not allowed in the current stage, session untouched
//   - ErrSuperseded: result discarded because the session was replaced
package orchestrator
