// Package provider abstracts streaming LLM completions for debate turns.
//
// A Provider turns a prompt plus generation context (standpoints, history,
// agent configuration, temperature) into a lazy, cancelable sequence of
// text fragments. The openrouter implementation streams chat completions
// from any OpenAI-compatible endpoint; the scripted implementation feeds
// canned fragments to tests.
package provider
