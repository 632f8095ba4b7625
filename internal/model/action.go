package model

// Action is the closed set of operations the dispatcher understands.
// Wire strings are converted exactly once, at the parse boundary;
// everything past that point switches on the variant.
type Action string

const (
	ActionReadFile      Action = "read_file"
	ActionWriteFile     Action = "write_file"
	ActionDeleteFile    Action = "delete_file"
	ActionListDir       Action = "list_dir"
	ActionCreateDir     Action = "create_dir"
	ActionFileExists    Action = "file_exists"
	ActionFileInfo      Action = "file_info"
	ActionMoveFile      Action = "move_file"
	ActionCopyFile      Action = "copy_file"
	ActionShell         Action = "shell"
	ActionOpenApp       Action = "open_app"
	ActionOpenURL       Action = "open_url"
	ActionListProcesses Action = "list_processes"
	ActionKillProcess   Action = "kill_process"
	ActionSystemInfo    Action = "system_info"
	ActionDiskUsage     Action = "disk_usage"
	ActionDesktop       Action = "desktop"
	ActionUnknown       Action = ""
)

var knownActions = map[string]Action{
	string(ActionReadFile):      ActionReadFile,
	string(ActionWriteFile):     ActionWriteFile,
	string(ActionDeleteFile):    ActionDeleteFile,
	string(ActionListDir):       ActionListDir,
	string(ActionCreateDir):     ActionCreateDir,
	string(ActionFileExists):    ActionFileExists,
	string(ActionFileInfo):      ActionFileInfo,
	string(ActionMoveFile):      ActionMoveFile,
	string(ActionCopyFile):      ActionCopyFile,
	string(ActionShell):         ActionShell,
	string(ActionOpenApp):       ActionOpenApp,
	string(ActionOpenURL):       ActionOpenURL,
	string(ActionListProcesses): ActionListProcesses,
	string(ActionKillProcess):   ActionKillProcess,
	string(ActionSystemInfo):    ActionSystemInfo,
	string(ActionDiskUsage):     ActionDiskUsage,
	string(ActionDesktop):       ActionDesktop,
}

// ParseAction converts a wire action name to its variant.
// Unrecognized names return (ActionUnknown, false): a protocol error,
// deliberately distinct from the classifier's ask-a-human default.
func ParseAction(name string) (Action, bool) {
	a, ok := knownActions[name]
	return a, ok
}

// RequestFromParams builds an ActionRequest from a raw params object with
// defensive coercion. Absent or mistyped fields are left zero; the
// dispatcher's per-action validation reports what is actually missing.
func RequestFromParams(action string, params map[string]any) ActionRequest {
	req := ActionRequest{Action: action, Params: params}
	if params == nil {
		return req
	}
	req.Path = str(params["path"])
	req.Command = str(params["command"])
	req.Content = str(params["content"])
	req.ProcessName = str(params["process_name"])
	req.AppName = str(params["app_name"])
	req.WorkingDirectory = str(params["working_directory"])
	if req.WorkingDirectory == "" {
		req.WorkingDirectory = str(params["cwd"])
	}
	if c, ok := params["confirmed"].(bool); ok {
		req.Confirmed = c
	}
	return req
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
