package action

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

// listProcessLimit caps the process listing the same way the Gateway's
// tool schema expects: enough to orient, not a full dump.
const listProcessLimit = 50

func (d *Dispatcher) listProcesses() model.ActionResult {
	procs, err := process.Processes()
	if err != nil {
		return errResult(fmt.Sprintf("Failed: %v", err), model.SafeVerdict())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PID      NAME")
	count := 0
	for _, p := range procs {
		if count >= listProcessLimit {
			break
		}
		name, err := p.Name()
		if err != nil {
			continue // process may have exited
		}
		fmt.Fprintf(&b, "\n%-8d %s", p.Pid, name)
		count++
	}
	return okResult(fmt.Sprintf("Top %d processes:\n%s", count, b.String()), model.SafeVerdict())
}

func (d *Dispatcher) killProcess(req model.ActionRequest) model.ActionResult {
	if req.ProcessName == "" {
		return missingField("process_name")
	}
	verdict := d.classifier.CheckProcessKill(req.ProcessName)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}
	if !req.Confirmed {
		return needsConfirmResult(verdict)
	}

	procs, err := process.Processes()
	if err != nil {
		return errResult(fmt.Sprintf("Failed: %v", err), verdict)
	}

	want := strings.TrimSuffix(strings.ToLower(req.ProcessName), ".exe")
	killed := 0
	var lastErr error
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.TrimSuffix(strings.ToLower(name), ".exe") != want {
			continue
		}
		if err := p.Kill(); err != nil {
			lastErr = err
			continue
		}
		killed++
	}

	if killed == 0 {
		if lastErr != nil {
			return errResult(fmt.Sprintf("Failed to kill %q: %v", req.ProcessName, lastErr), verdict)
		}
		return errResult(fmt.Sprintf("No running process matches %q", req.ProcessName), verdict)
	}
	return okResult(fmt.Sprintf("Terminated %d process(es) matching %q", killed, req.ProcessName), verdict)
}
