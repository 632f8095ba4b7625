package model

// RiskLevel classifies the severity of a proposed operation.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskBlocked RiskLevel = "blocked"
)

// RiskRank maps risk levels to comparable integers for ordering checks.
var RiskRank = map[RiskLevel]int{
	RiskSafe:    0,
	RiskLow:     1,
	RiskMedium:  2,
	RiskHigh:    3,
	RiskBlocked: 4,
}

// SafetyVerdict is the classifier's judgment for one proposed operation.
//
// Invariants: RiskBlocked implies Allowed == false, and
// RequiresConfirmation implies Allowed == true. Use the constructors
// below instead of building verdicts by hand.
type SafetyVerdict struct {
	Allowed              bool      `json:"allowed"`
	Risk                 RiskLevel `json:"risk"`
	Reason               string    `json:"reason"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
}

// Blocked returns an unconditional hard-block verdict.
func Blocked(reason string) SafetyVerdict {
	return SafetyVerdict{Allowed: false, Risk: RiskBlocked, Reason: reason}
}

// Allowed returns a permitted verdict at the given risk level.
func Allowed(risk RiskLevel, reason string) SafetyVerdict {
	return SafetyVerdict{Allowed: true, Risk: risk, Reason: reason}
}

// NeedsConfirmation returns a permitted verdict gated on human approval.
func NeedsConfirmation(risk RiskLevel, reason string) SafetyVerdict {
	return SafetyVerdict{Allowed: true, Risk: risk, Reason: reason, RequiresConfirmation: true}
}

// SafeVerdict is the neutral verdict attached to results that never
// reached a risk check (missing parameters, read-only lookups).
func SafeVerdict() SafetyVerdict {
	return SafetyVerdict{Allowed: true, Risk: RiskSafe}
}

// ActionRequest is one inbound unit of work. Immutable once constructed;
// owned exclusively by the dispatch call that processes it.
type ActionRequest struct {
	Action           string `json:"action"`
	Path             string `json:"path,omitempty"`
	Command          string `json:"command,omitempty"`
	Content          string `json:"content,omitempty"`
	ProcessName      string `json:"process_name,omitempty"`
	AppName          string `json:"app_name,omitempty"`
	WorkingDirectory string `json:"working_directory,omitempty"`
	Confirmed        bool   `json:"confirmed"`

	// Params carries the raw parameter object for actions with their
	// own sub-protocol (desktop automation).
	Params map[string]any `json:"-"`
}

// ActionResult is the dispatcher's output for one request.
type ActionResult struct {
	Success bool          `json:"success"`
	Output  string        `json:"output"`
	Safety  SafetyVerdict `json:"safety"`
}
