package action

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

func (d *Dispatcher) openApp(req model.ActionRequest) model.ActionResult {
	if req.AppName == "" {
		return missingField("app_name")
	}
	verdict := model.Allowed(model.RiskMedium, "Opening application: "+req.AppName)

	if err := openCommand(req.AppName).Start(); err != nil {
		return errResult(fmt.Sprintf("Failed to open %s: %v", req.AppName, err), verdict)
	}
	return okResult("Launched: "+req.AppName, verdict)
}

// openURL takes the URL in the path slot, matching the Gateway tool schema.
func (d *Dispatcher) openURL(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path (URL)")
	}
	verdict := model.Allowed(model.RiskLow, "Opening URL in default browser")

	if err := openCommand(req.Path).Start(); err != nil {
		return errResult(fmt.Sprintf("Failed: %v", err), verdict)
	}
	return okResult("Opened URL: "+req.Path, verdict)
}

// openCommand launches a target through the platform's default-open
// mechanism, detached from the companion process.
func openCommand(target string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/C", "start", "", target)
	case "darwin":
		return exec.Command("open", target)
	default:
		return exec.Command("xdg-open", target)
	}
}
