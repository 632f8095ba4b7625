package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeai-dev/ForgeAI/internal/model"
	"github.com/forgeai-dev/ForgeAI/internal/safety"
)

var (
	checkAction  string
	checkPath    string
	checkCommand string
	checkProcess string
	checkOverlay string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkAction, "action", "", "File operation to classify (read_file, write_file, delete_file, ...)")
	checkCmd.Flags().StringVar(&checkPath, "path", "", "Target path for file operations")
	checkCmd.Flags().StringVar(&checkCommand, "command", "", "Shell command line to classify")
	checkCmd.Flags().StringVar(&checkProcess, "process", "", "Process name to classify for kill")
	checkCmd.Flags().StringVar(&checkOverlay, "safety-overlay", "", "Path to safety overlay YAML (default: ~/.forgeai/safety.yaml)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify an operation without executing it",
	Long: "Runs the safety classifier against a proposed operation and prints\n" +
		"the verdict as JSON. Exit code 77 indicates the operation would be\n" +
		"blocked; 0 means it would be allowed (possibly confirmation-gated).",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	overlayPath := checkOverlay
	if overlayPath == "" {
		overlayPath = safety.DefaultOverlayPath()
	}
	overlay, err := safety.LoadOverlay(overlayPath)
	if err != nil {
		return fmt.Errorf("load safety overlay: %w", err)
	}
	classifier := safety.New(overlay)

	var verdict model.SafetyVerdict
	switch {
	case checkCommand != "":
		verdict = classifier.CheckShellCommand(checkCommand)
	case checkProcess != "":
		verdict = classifier.CheckProcessKill(checkProcess)
	case checkAction != "" && checkPath != "":
		verdict = classifier.CheckFileOperation(checkAction, checkPath)
	default:
		return fmt.Errorf("provide --command, --process, or --action with --path")
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !verdict.Allowed {
		os.Exit(77) // EX_NOPERM: blocked by safety policy
	}
	return nil
}
