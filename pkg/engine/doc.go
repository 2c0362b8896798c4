// Package engine is the boundary to the external process engine. The engine
// itself (definition interpreter, persistence, timers) is a black box; this
// package defines the narrow client surface the orchestration layer calls
// into and the hook set the engine calls back through while it executes a
// process instance.
package engine
