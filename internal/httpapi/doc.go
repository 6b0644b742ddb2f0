// Package httpapi exposes debates over HTTP.
//
// It is a thin transport adapter: JSON CRUD for debates and messages, an
// SSE endpoint that drives the orchestrator loop for one client, and
// out-of-band control endpoints (pause, resume, stop, next-turn) that
// route to the in-flight loop. Persisted status transitions accompany
// successful control signals so a reconnecting client sees a consistent
// picture.
package httpapi
