// Package safety is the risk classifier: pure pattern checks mapping a
// proposed operation to a SafetyVerdict before any side effect happens.
//
// The classifier never returns an error. Absence of a match falls through
// to the most conservative applicable default — confirmation required,
// never silently allowed and never a crash. It is a policy layer, not a
// sandbox: necessary, not sufficient.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

// Classifier holds the compiled rule set. Reload swaps the whole set
// atomically so hot-reload never races an in-flight classification.
type Classifier struct {
	rules atomic.Pointer[ruleset]
}

type ruleset struct {
	blockedCommands   []string
	blockedPaths      []string
	extraAllowedRoots []string
	criticalProcs     map[string]bool
	homeDir           string
	tempDir           string
}

// New builds a classifier from the built-in tables plus an optional
// overlay. A nil overlay means built-ins only.
func New(o *Overlay) *Classifier {
	c := &Classifier{}
	c.Reload(o)
	return c
}

// Reload replaces the active rule set with built-ins plus the overlay.
func (c *Classifier) Reload(o *Overlay) {
	rs := &ruleset{
		criticalProcs: make(map[string]bool, len(criticalProcesses)),
	}

	rs.blockedCommands = append(rs.blockedCommands, blockedCommandSubstrings...)
	rs.blockedPaths = append(rs.blockedPaths, protectedRoots...)
	for _, p := range criticalProcesses {
		rs.criticalProcs[procKey(p)] = true
	}

	if o != nil {
		for _, cmd := range o.BlockedCommands {
			rs.blockedCommands = append(rs.blockedCommands, strings.ToLower(cmd))
		}
		for _, p := range o.BlockedPaths {
			rs.blockedPaths = append(rs.blockedPaths, normalizePath(p))
		}
		for _, r := range o.AllowedRoots {
			rs.extraAllowedRoots = append(rs.extraAllowedRoots, normalizePath(r))
		}
		for _, p := range o.ProtectedProcesses {
			rs.criticalProcs[procKey(p)] = true
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		rs.homeDir = normalizePath(home)
	}
	rs.tempDir = normalizePath(os.TempDir())

	c.rules.Store(rs)
}

// CheckFileOperation classifies a file operation against a target path.
//
// Order matters: read-only short-circuit, protected-path hard block,
// delete class, write class, conservative default. The protected-path
// block cannot be overridden by a confirmed flag — that gate lives here,
// not in the dispatcher.
func (c *Classifier) CheckFileOperation(op, path string) model.SafetyVerdict {
	rs := c.rules.Load()
	operation := strings.ToLower(op)

	switch operation {
	case "read", "list", "stat", "exists":
		return model.Allowed(model.RiskSafe, "Read operations are always allowed")
	}

	if rs.isProtectedPath(path) {
		return model.Blocked(fmt.Sprintf("BLOCKED: %q is a system-protected path. This operation is never allowed.", path))
	}

	switch operation {
	case "delete", "remove", "rmdir":
		return model.Allowed(model.RiskMedium,
			fmt.Sprintf("Delete operation on %q: path is not system-protected", path))
	case "write", "create", "move", "copy", "rename":
		if !rs.isAllowedRoot(path) {
			return model.Blocked(fmt.Sprintf("BLOCKED: cannot write to %q: outside allowed directories", path))
		}
		return model.Allowed(model.RiskMedium, "File operation within allowed directories")
	}

	return model.NeedsConfirmation(model.RiskMedium,
		fmt.Sprintf("Unknown file operation %q requires confirmation", op))
}

// CheckShellCommand classifies a shell command string.
//
// The deny list always wins: it scans the whole text before any prefix
// allow-list is consulted, so a destructive invocation chained after a
// safe-looking prefix still blocks.
func (c *Classifier) CheckShellCommand(command string) model.SafetyVerdict {
	rs := c.rules.Load()
	cmd := strings.ToLower(strings.TrimSpace(command))

	for _, blocked := range rs.blockedCommands {
		if strings.Contains(cmd, blocked) {
			return model.Blocked(fmt.Sprintf("BLOCKED: command contains %q which could damage the system", blocked))
		}
	}
	for _, re := range blockedCommandPatterns {
		if re.MatchString(cmd) {
			return model.Blocked(fmt.Sprintf("BLOCKED: command matches dangerous pattern %q", re.String()))
		}
	}

	for _, safe := range safeCommandPrefixes {
		if strings.HasPrefix(cmd, safe) || cmd == strings.TrimSpace(safe) {
			return model.Allowed(model.RiskSafe, "Read-only command")
		}
	}

	for _, med := range mediumCommandPrefixes {
		if strings.HasPrefix(cmd, med) {
			return model.Allowed(model.RiskMedium,
				fmt.Sprintf("Application/file command: %s", strings.TrimSpace(med)))
		}
	}

	for _, high := range highCommandPrefixes {
		if strings.HasPrefix(cmd, high) {
			return model.NeedsConfirmation(model.RiskHigh,
				fmt.Sprintf("High-risk command %q requires user confirmation", strings.TrimSpace(high)))
		}
	}

	return model.NeedsConfirmation(model.RiskHigh, "Unknown command requires user confirmation")
}

// CheckProcessKill classifies a process termination by name. No kill is
// ever unconditionally safe.
func (c *Classifier) CheckProcessKill(processName string) model.SafetyVerdict {
	rs := c.rules.Load()
	if rs.criticalProcs[procKey(processName)] {
		return model.Blocked(fmt.Sprintf("BLOCKED: %q is a critical system process and cannot be terminated", processName))
	}
	return model.NeedsConfirmation(model.RiskHigh,
		fmt.Sprintf("Killing process %q requires confirmation", processName))
}

// isProtectedPath reports whether the target falls under a protected root
// or is a protected file type in a system location. Normalization makes
// the check immune to casing and slash style.
func (rs *ruleset) isProtectedPath(path string) bool {
	normalized := normalizePath(path)
	for _, root := range rs.blockedPaths {
		if strings.HasPrefix(normalized, root) {
			return true
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(normalized)), ".")
	if protectedExtensions[ext] {
		for _, root := range systemExtensionRoots {
			if strings.HasPrefix(normalized, root) {
				return true
			}
		}
	}
	return false
}

// isAllowedRoot reports whether a mutating operation may target the path:
// the operator's home, the temp directory, an overlay root, or any
// drive-letter path that is not itself protected.
func (rs *ruleset) isAllowedRoot(path string) bool {
	normalized := normalizePath(path)

	if rs.homeDir != "" && strings.HasPrefix(normalized, rs.homeDir) {
		return true
	}
	if rs.tempDir != "" && strings.HasPrefix(normalized, rs.tempDir) {
		return true
	}
	for _, root := range rs.extraAllowedRoots {
		if strings.HasPrefix(normalized, root) {
			return true
		}
	}

	// Any drive-letter path outside the protected roots.
	if len(normalized) >= 3 && normalized[1] == ':' &&
		normalized[0] >= 'a' && normalized[0] <= 'z' &&
		!rs.isProtectedPath(normalized) {
		return true
	}

	return false
}

// normalizePath lower-cases and converts separators to backslashes so
// prefix checks match regardless of how the caller spelled the path.
func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "/", `\`))
}

// procKey normalizes a process name for the critical-process lookup:
// lower-case, .exe stripped.
func procKey(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
