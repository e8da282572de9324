package constants

// VerdictStatus is the terminal classification outcome of one pipeline run.
type VerdictStatus string

// Stable values (stored exactly as these strings in history).
const (
	StatusApproved VerdictStatus = "APPROVED" // signature and stamp present, claim matches
	StatusRejected VerdictStatus = "REJECTED" // claim mismatch, or neither mark present
	StatusReview   VerdictStatus = "REVIEW"   // exactly one mark present, needs a human
)

// RunStatus is the lifecycle status of one pipeline run in the history store.
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED" // image failed to decode
)

// EngineKind names which text-extraction engine produced the final text.
type EngineKind string

const (
	EnginePrimary   EngineKind = "PRIMARY"   // deterministic recognizer
	EngineSecondary EngineKind = "SECONDARY" // vision-language fallback
)
