package action

import (
	"fmt"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

// Output caps. Results travel back to the Gateway and into an LLM
// context, so the tail is cut with an explicit marker instead of being
// dropped silently.
const (
	maxFileOutput  = 50_000
	maxShellOutput = 30_000
)

// ConfirmationMarker prefixes the output of a result that was deferred
// pending human approval. Callers resubmit the identical request with
// confirmed set once approval is obtained.
const ConfirmationMarker = "CONFIRMATION REQUIRED:"

func blockedResult(verdict model.SafetyVerdict) model.ActionResult {
	return model.ActionResult{Success: false, Output: verdict.Reason, Safety: verdict}
}

func okResult(output string, verdict model.SafetyVerdict) model.ActionResult {
	return model.ActionResult{Success: true, Output: output, Safety: verdict}
}

func errResult(msg string, verdict model.SafetyVerdict) model.ActionResult {
	return model.ActionResult{Success: false, Output: msg, Safety: verdict}
}

func needsConfirmResult(verdict model.SafetyVerdict) model.ActionResult {
	return model.ActionResult{
		Success: false,
		Output:  fmt.Sprintf("%s %s. Resubmit with confirmed=true to proceed.", ConfirmationMarker, verdict.Reason),
		Safety:  verdict,
	}
}

// missingField reports an absent required parameter. Not a safety event:
// the verdict stays neutral.
func missingField(name string) model.ActionResult {
	return errResult(name+" is required", model.SafeVerdict())
}

// IsConfirmationPending reports whether a result is the deferred
// needs-confirmation outcome rather than a failure.
func IsConfirmationPending(res model.ActionResult) bool {
	return !res.Success && res.Safety.RequiresConfirmation &&
		len(res.Output) >= len(ConfirmationMarker) &&
		res.Output[:len(ConfirmationMarker)] == ConfirmationMarker
}

// truncate caps text at limit bytes, appending a marker with the
// original size when anything was cut.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s...\n[Truncated: %d bytes total]", s[:limit], len(s))
}

func formatSize(bytes uint64) string {
	switch {
	case bytes < 1<<10:
		return fmt.Sprintf("%dB", bytes)
	case bytes < 1<<20:
		return fmt.Sprintf("%.1fKB", float64(bytes)/(1<<10))
	case bytes < 1<<30:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1<<20))
	default:
		return fmt.Sprintf("%.1fGB", float64(bytes)/(1<<30))
	}
}
