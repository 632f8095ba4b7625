package action

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

func (d *Dispatcher) runShell(req model.ActionRequest) model.ActionResult {
	if req.Command == "" {
		return missingField("command")
	}
	verdict := d.classifier.CheckShellCommand(req.Command)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}
	if verdict.RequiresConfirmation && !req.Confirmed {
		return needsConfirmResult(verdict)
	}

	cmd := shellCommand(req.Command)
	if req.WorkingDirectory != "" {
		cmd.Dir = req.WorkingDirectory
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return errResult(fmt.Sprintf("Failed to execute: %v", err), verdict)
		}
		// Non-zero exit still carries useful output; report both.
		return errResult(truncate(fmt.Sprintf("%s\n[exit: %v]", string(out), err), maxShellOutput), verdict)
	}
	return okResult(truncate(string(out), maxShellOutput), verdict)
}

// shellCommand wraps a command line in the platform shell, matching how
// the Gateway's tool schema expresses commands (one string, not argv).
func shellCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", command)
	}
	return exec.Command("sh", "-c", command)
}
