// Package storage defines the interfaces for the local relational mirror of
// the approval workflow state. The orchestration layer exclusively owns
// process templates and process instances; submissions, employees and
// notifications belong to other subsystems and are reachable here only
// through the narrow reader/writer surfaces the orchestration needs.
package storage
