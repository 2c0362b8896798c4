// Package approval is the orchestration layer between the external process
// engine and the local workflow mirror. It registers process templates,
// launches instances for form submissions, translates human decisions into
// engine task completions and reacts to the engine's lifecycle hooks to keep
// the mirror consistent and to fan out notifications.
package approval
