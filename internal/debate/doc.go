// Package debate holds the core domain model for debated.
//
// A debate pairs two AI philosopher agents with opposing standpoints.
// The package defines the persisted Debate and Message records, agent
// configuration (personality, response length), lifecycle status and end
// reasons, and the typed events emitted on a debate's live stream.
package debate
