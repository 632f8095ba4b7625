// Package action executes local machine actions (files, shell, apps,
// processes, desktop automation) with a mandatory safety check before
// every side effect.
package action

import (
	"go.uber.org/zap"

	"github.com/forgeai-dev/ForgeAI/internal/audit"
	"github.com/forgeai-dev/ForgeAI/internal/model"
)

// Dispatcher routes action requests through the risk classifier and, when
// permitted, to the concrete OS operation. Safe to call from any
// goroutine; it holds no per-request state.
type Dispatcher struct {
	classifier safetyClassifier
	auditLog   *audit.Log
	log        *zap.Logger
}

// safetyClassifier is the slice of the classifier the dispatcher needs,
// kept as an interface so tests can substitute a fixed-verdict fake.
type safetyClassifier interface {
	CheckFileOperation(op, path string) model.SafetyVerdict
	CheckShellCommand(command string) model.SafetyVerdict
	CheckProcessKill(processName string) model.SafetyVerdict
}

// New creates a dispatcher. auditLog may be nil to disable auditing.
func New(classifier safetyClassifier, auditLog *audit.Log, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{classifier: classifier, auditLog: auditLog, log: log}
}

// Execute runs one action request to completion and returns a uniform
// result. It never panics and never returns an error: every failure mode
// is encoded in the result.
func (d *Dispatcher) Execute(req model.ActionRequest) model.ActionResult {
	return d.ExecuteTracked("", req)
}

// ExecuteTracked is Execute with a request id threaded through for the
// audit trail.
func (d *Dispatcher) ExecuteTracked(requestID string, req model.ActionRequest) model.ActionResult {
	res := d.dispatch(req)

	d.log.Info("action dispatched",
		zap.String("request_id", requestID),
		zap.String("action", req.Action),
		zap.Bool("success", res.Success),
		zap.String("risk", string(res.Safety.Risk)),
	)

	if d.auditLog != nil {
		entry := audit.Entry{
			RequestID: requestID,
			Action:    req.Action,
			Target:    auditTarget(req),
			Decision:  decisionFor(res),
			Risk:      string(res.Safety.Risk),
			Reason:    res.Safety.Reason,
		}
		if err := d.auditLog.Record(entry); err != nil {
			d.log.Warn("audit record failed", zap.Error(err))
		}
	}

	return res
}

// dispatch is the closed-world action table. Unknown action names are a
// protocol error and default-deny, distinct from the classifier's
// ask-for-confirmation default for unknown but well-formed operations.
func (d *Dispatcher) dispatch(req model.ActionRequest) model.ActionResult {
	act, ok := model.ParseAction(req.Action)
	if !ok {
		return model.ActionResult{
			Success: false,
			Output:  "Unknown action: " + req.Action,
			Safety:  model.Blocked("Unknown action"),
		}
	}

	switch act {
	case model.ActionReadFile:
		return d.readFile(req)
	case model.ActionWriteFile:
		return d.writeFile(req)
	case model.ActionDeleteFile:
		return d.deleteFile(req)
	case model.ActionListDir:
		return d.listDir(req)
	case model.ActionCreateDir:
		return d.createDir(req)
	case model.ActionFileExists:
		return d.fileExists(req)
	case model.ActionFileInfo:
		return d.fileInfo(req)
	case model.ActionMoveFile:
		return d.moveFile(req)
	case model.ActionCopyFile:
		return d.copyFile(req)
	case model.ActionShell:
		return d.runShell(req)
	case model.ActionOpenApp:
		return d.openApp(req)
	case model.ActionOpenURL:
		return d.openURL(req)
	case model.ActionListProcesses:
		return d.listProcesses()
	case model.ActionKillProcess:
		return d.killProcess(req)
	case model.ActionSystemInfo:
		return d.systemInfo()
	case model.ActionDiskUsage:
		return d.diskUsage()
	case model.ActionDesktop:
		return d.desktop(req)
	default:
		return model.ActionResult{
			Success: false,
			Output:  "Unknown action: " + req.Action,
			Safety:  model.Blocked("Unknown action"),
		}
	}
}

func decisionFor(res model.ActionResult) string {
	switch {
	case res.Safety.Risk == model.RiskBlocked:
		return audit.DecisionBlocked
	case IsConfirmationPending(res):
		return audit.DecisionNeedsConfirm
	case res.Success:
		return audit.DecisionExecuted
	default:
		return audit.DecisionError
	}
}

func auditTarget(req model.ActionRequest) string {
	switch {
	case req.Path != "":
		return req.Path
	case req.Command != "":
		return req.Command
	case req.ProcessName != "":
		return req.ProcessName
	case req.AppName != "":
		return req.AppName
	default:
		return ""
	}
}
