// Package agent implements the parser and solver agents on Google's Gemini API.
//
// Both agents send a prompt through a Generator, strip markdown fences and
// surrounding prose from the reply, decode the JSON payload and validate it
// before converting it to orchestrator types. Failures are returned as
// *orchestrator.AgentError, classified from the upstream error text.
package agent
