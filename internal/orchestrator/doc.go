// Package orchestrator drives the debate turn-taking loop.
//
// One run-state exists per actively driven debate, held in a Registry so
// that out-of-band control signals (pause, resume, stop, trigger-next) can
// reach the in-flight loop. The loop alternates the two agents, relays
// provider fragments as events, persists each completed turn, and applies
// the pause/step/auto-pause/timeout/turn-limit policy.
package orchestrator
