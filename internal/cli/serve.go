package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgeai-dev/ForgeAI/internal/action"
	"github.com/forgeai-dev/ForgeAI/internal/audit"
	"github.com/forgeai-dev/ForgeAI/internal/creds"
	"github.com/forgeai-dev/ForgeAI/internal/gateway"
	"github.com/forgeai-dev/ForgeAI/internal/safety"
)

var (
	serveOverlay  string
	serveAuditLog string
	serveLogJSON  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOverlay, "safety-overlay", "", "Path to safety overlay YAML (default: ~/.forgeai/safety.yaml)")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to audit log JSONL file (default: ~/.forgeai/audit.jsonl)")
	serveCmd.Flags().BoolVar(&serveLogJSON, "log-json", false, "Emit structured JSON logs instead of console output")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the companion daemon",
	Long: "Connects to the paired Gateway over a persistent control channel and\n" +
		"executes incoming action requests through the safety classifier.\n" +
		"The safety overlay file hot-reloads on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}

	pidPath := filepath.Join(dir, "companion.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return err
	}
	defer os.Remove(pidPath)

	log, err := newLogger(serveLogJSON)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	overlayPath := serveOverlay
	if overlayPath == "" {
		overlayPath = safety.DefaultOverlayPath()
	}
	overlay, err := safety.LoadOverlay(overlayPath)
	if err != nil {
		return fmt.Errorf("load safety overlay: %w", err)
	}
	classifier := safety.New(overlay)

	auditPath := serveAuditLog
	if auditPath == "" {
		auditPath = filepath.Join(dir, "audit.jsonl")
	}
	auditLog, err := audit.Open(auditPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLog.Close()

	store, err := creds.NewStore()
	if err != nil {
		return fmt.Errorf("init credential store: %w", err)
	}

	dispatcher := action.New(classifier, auditLog, log)
	channel := gateway.New(store, dispatcher, log)
	channel.OnStateChange = func(s gateway.State) {
		log.Info("channel state changed", zap.Stringer("state", s))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader, err := safety.NewReloader(classifier, overlayPath, log)
	if err != nil {
		log.Warn("safety overlay hot-reload disabled", zap.Error(err))
	} else {
		go reloader.Run(ctx)
	}

	channel.Start()
	log.Info("companion daemon started",
		zap.String("overlay", overlayPath),
		zap.String("audit_log", auditPath),
		zap.Int("pid", os.Getpid()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info("shutting down", zap.Stringer("signal", sig))
	return nil
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another companion is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file — remove it.
		_ = os.Remove(path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// dataDir returns ~/.forgeai, creating it if needed.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".forgeai")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

func newLogger(jsonOutput bool) (*zap.Logger, error) {
	if jsonOutput {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
