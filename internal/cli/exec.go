package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgeai-dev/ForgeAI/internal/action"
	"github.com/forgeai-dev/ForgeAI/internal/audit"
	"github.com/forgeai-dev/ForgeAI/internal/model"
	"github.com/forgeai-dev/ForgeAI/internal/safety"
)

var (
	execPath    string
	execCommand string
	execContent string
	execProcess string
	execApp     string
	execCwd     string
	execConfirm bool
	execOverlay string
)

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execPath, "path", "", "Target path (file operations, open_url)")
	execCmd.Flags().StringVar(&execCommand, "command", "", "Shell command line (shell)")
	execCmd.Flags().StringVar(&execContent, "content", "", "File content (write_file) or destination (move_file, copy_file)")
	execCmd.Flags().StringVar(&execProcess, "process", "", "Process name (kill_process)")
	execCmd.Flags().StringVar(&execApp, "app", "", "Application name (open_app)")
	execCmd.Flags().StringVar(&execCwd, "cwd", "", "Working directory for shell commands")
	execCmd.Flags().BoolVar(&execConfirm, "confirm", false, "Assert that a human approved this operation")
	execCmd.Flags().StringVar(&execOverlay, "safety-overlay", "", "Path to safety overlay YAML (default: ~/.forgeai/safety.yaml)")
}

var execCmd = &cobra.Command{
	Use:   "exec <action>",
	Short: "Dispatch a single action locally",
	Long: "Runs one action through the same classify-then-execute pipeline the\n" +
		"daemon uses, printing the result as JSON. Exit code 77 indicates a\n" +
		"safety block. Confirmation-gated actions need --confirm.",
	Args: cobra.ExactArgs(1),
	RunE: runExecAction,
}

func runExecAction(cmd *cobra.Command, args []string) error {
	overlayPath := execOverlay
	if overlayPath == "" {
		overlayPath = safety.DefaultOverlayPath()
	}
	overlay, err := safety.LoadOverlay(overlayPath)
	if err != nil {
		return fmt.Errorf("load safety overlay: %w", err)
	}

	dir, err := dataDir()
	if err != nil {
		return err
	}
	auditLog, err := audit.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLog.Close()

	dispatcher := action.New(safety.New(overlay), auditLog, nil)
	result := dispatcher.Execute(model.ActionRequest{
		Action:           args[0],
		Path:             execPath,
		Command:          execCommand,
		Content:          execContent,
		ProcessName:      execProcess,
		AppName:          execApp,
		WorkingDirectory: execCwd,
		Confirmed:        execConfirm,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Safety.Allowed {
		os.Exit(77) // EX_NOPERM: blocked by safety policy
	}
	if !result.Success {
		os.Exit(1)
	}
	return nil
}
