package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

func TestProtectedRootBlockedForWrite(t *testing.T) {
	c := New(nil)

	v := c.CheckFileOperation("write", `C:\Windows\System32\config\sam`)
	if v.Allowed {
		t.Error("expected write under C:\\Windows to be blocked")
	}
	if v.Risk != model.RiskBlocked {
		t.Errorf("expected blocked risk, got %s", v.Risk)
	}
}

func TestProtectedRootBlockedForDelete(t *testing.T) {
	c := New(nil)

	v := c.CheckFileOperation("delete", `C:\Windows\System32\cmd.exe`)
	if v.Allowed {
		t.Error("expected delete under C:\\Windows to be blocked")
	}
}

func TestProtectedPathCaseInsensitive(t *testing.T) {
	c := New(nil)

	for _, path := range []string{
		`c:\windows\system32\cmd.exe`,
		`C:\WINDOWS\System32\cmd.exe`,
		`C:/Windows/System32/cmd.exe`,
		`c:/windows/system32/cmd.exe`,
	} {
		v := c.CheckFileOperation("delete", path)
		if v.Allowed {
			t.Errorf("expected %q to be blocked regardless of casing and slashes", path)
		}
	}
}

func TestConfirmedFlagCannotOverrideProtectedPath(t *testing.T) {
	// The classifier never sees the confirmed flag; a protected path is
	// blocked, full stop. This pins the verdict shape the dispatcher
	// relies on.
	c := New(nil)

	v := c.CheckFileOperation("write", `C:\Program Files\app\app.dll`)
	if v.Allowed || v.RequiresConfirmation {
		t.Errorf("expected hard block, got allowed=%v requires_confirmation=%v",
			v.Allowed, v.RequiresConfirmation)
	}
}

func TestUnixProtectedRoots(t *testing.T) {
	c := New(nil)

	for _, path := range []string{"/etc/passwd", "/usr/bin/python", "/boot/vmlinuz"} {
		v := c.CheckFileOperation("write", path)
		if v.Allowed {
			t.Errorf("expected write to %q to be blocked", path)
		}
	}
}

func TestReadAlwaysAllowed(t *testing.T) {
	c := New(nil)

	// Reads are safe even on protected paths; exfiltration control is
	// the Gateway's concern, not this classifier's.
	v := c.CheckFileOperation("read", `C:\Windows\System32\drivers\etc\hosts`)
	if !v.Allowed || v.Risk != model.RiskSafe {
		t.Errorf("expected safe allow for read, got %+v", v)
	}
}

func TestDeleteOutsideProtectedNeedsNoConfirmation(t *testing.T) {
	c := New(nil)

	v := c.CheckFileOperation("delete", `C:\Users\alice\Documents\notes.txt`)
	if !v.Allowed {
		t.Errorf("expected delete of user file to be allowed: %s", v.Reason)
	}
	if v.Risk != model.RiskMedium {
		t.Errorf("expected medium risk, got %s", v.Risk)
	}
	if v.RequiresConfirmation {
		t.Error("delete of a non-protected path must not require confirmation")
	}
}

func TestWriteUnderHomeAllowed(t *testing.T) {
	c := New(nil)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	v := c.CheckFileOperation("write", filepath.Join(home, "notes", "todo.md"))
	if !v.Allowed {
		t.Errorf("expected write under home to be allowed: %s", v.Reason)
	}
	if v.RequiresConfirmation {
		t.Error("writes within allowed roots must not require confirmation")
	}
}

func TestWriteOutsideAllowedRootsBlocked(t *testing.T) {
	c := New(nil)

	v := c.CheckFileOperation("write", "/var/spool/cron/root")
	if v.Allowed {
		t.Error("expected write outside allowed roots to be blocked")
	}
}

func TestUnknownFileOperationRequiresConfirmation(t *testing.T) {
	c := New(nil)

	v := c.CheckFileOperation("defragment", `C:\Users\alice\file.bin`)
	if !v.Allowed || !v.RequiresConfirmation {
		t.Errorf("unknown operation should fall through to confirmation, got %+v", v)
	}
}

func TestShellDenySubstrings(t *testing.T) {
	c := New(nil)

	cases := []string{
		"format c:",
		"FORMAT C:",
		"diskpart /s wipe.txt",
		"shutdown /s /t 0",
		"rm -rf /etc",
		"dd if=/dev/zero of=/dev/sda",
		"mkfs.ext4 /dev/sda1",
		`reg delete HKLM\SYSTEM /f`,
	}
	for _, cmd := range cases {
		v := c.CheckShellCommand(cmd)
		if v.Allowed {
			t.Errorf("expected %q to be blocked", cmd)
		}
	}
}

func TestShellDenyWinsOverSafePrefix(t *testing.T) {
	c := New(nil)

	// Starts with a safe prefix but chains a destructive command; the
	// deny scan runs over the whole text first.
	v := c.CheckShellCommand("echo hello && format c:")
	if v.Allowed {
		t.Error("expected chained destructive command to be blocked")
	}
}

func TestShellDenyPatterns(t *testing.T) {
	c := New(nil)

	for _, cmd := range []string{
		"rm -rf /",
		"rm -rf ~",
		`del /f /s /q c:\`,
		`Remove-Item "C:\" -Recurse`,
		`rd /s /q C:\Windows\Temp`,
	} {
		v := c.CheckShellCommand(cmd)
		if v.Allowed {
			t.Errorf("expected %q to match a deny pattern", cmd)
		}
	}
}

func TestShellSafePrefixes(t *testing.T) {
	c := New(nil)

	for _, cmd := range []string{"dir C:\\Users", "ls -la", "whoami", "hostname", "cat go.mod"} {
		v := c.CheckShellCommand(cmd)
		if !v.Allowed || v.Risk != model.RiskSafe || v.RequiresConfirmation {
			t.Errorf("expected %q to classify safe, got %+v", cmd, v)
		}
	}
}

func TestShellMediumPrefixes(t *testing.T) {
	c := New(nil)

	v := c.CheckShellCommand("git status")
	if !v.Allowed || v.Risk != model.RiskMedium || v.RequiresConfirmation {
		t.Errorf("expected medium no-confirmation for git, got %+v", v)
	}
}

func TestShellHighPrefixesNeedConfirmation(t *testing.T) {
	c := New(nil)

	for _, cmd := range []string{"del old.txt", "taskkill /im notepad.exe", "sudo apt upgrade"} {
		v := c.CheckShellCommand(cmd)
		if !v.Allowed || !v.RequiresConfirmation {
			t.Errorf("expected %q to require confirmation, got %+v", cmd, v)
		}
		if v.Risk != model.RiskHigh {
			t.Errorf("expected high risk for %q, got %s", cmd, v.Risk)
		}
	}
}

func TestShellUnknownDefaultsToConfirmation(t *testing.T) {
	c := New(nil)

	v := c.CheckShellCommand("frobnicate --all")
	if !v.Allowed || !v.RequiresConfirmation || v.Risk != model.RiskHigh {
		t.Errorf("unknown command should fail toward confirmation, got %+v", v)
	}
}

func TestKillCriticalProcessBlocked(t *testing.T) {
	c := New(nil)

	for _, name := range []string{"svchost.exe", "SVCHOST.EXE", "svchost", "lsass.exe", "systemd", "init"} {
		v := c.CheckProcessKill(name)
		if v.Allowed {
			t.Errorf("expected kill of %q to be blocked", name)
		}
	}
}

func TestKillOrdinaryProcessNeedsConfirmation(t *testing.T) {
	c := New(nil)

	v := c.CheckProcessKill("notepad.exe")
	if !v.Allowed || !v.RequiresConfirmation || v.Risk != model.RiskHigh {
		t.Errorf("expected high-risk confirmation gate, got %+v", v)
	}
}

func TestVerdictInvariants(t *testing.T) {
	c := New(nil)

	inputs := []model.SafetyVerdict{
		c.CheckFileOperation("read", "/tmp/x"),
		c.CheckFileOperation("write", `C:\Windows\foo`),
		c.CheckFileOperation("delete", "/etc/passwd"),
		c.CheckFileOperation("frob", "/tmp/x"),
		c.CheckShellCommand("format c:"),
		c.CheckShellCommand("ls"),
		c.CheckShellCommand("mystery"),
		c.CheckProcessKill("svchost"),
		c.CheckProcessKill("notepad"),
	}
	for i, v := range inputs {
		if v.Risk == model.RiskBlocked && v.Allowed {
			t.Errorf("case %d: blocked risk must imply not allowed: %+v", i, v)
		}
		if v.RequiresConfirmation && !v.Allowed {
			t.Errorf("case %d: requires_confirmation must imply allowed: %+v", i, v)
		}
	}
}

func TestOverlayExtendsRules(t *testing.T) {
	c := New(&Overlay{
		BlockedCommands:    []string{"terraform destroy"},
		BlockedPaths:       []string{`D:\finance`},
		ProtectedProcesses: []string{"postgres"},
	})

	if v := c.CheckShellCommand("terraform destroy -auto-approve"); v.Allowed {
		t.Error("expected overlay command block")
	}
	if v := c.CheckFileOperation("write", `d:/finance/ledger.db`); v.Allowed {
		t.Error("expected overlay path block")
	}
	if v := c.CheckProcessKill("postgres"); v.Allowed {
		t.Error("expected overlay process block")
	}
}

func TestOverlayAllowedRoots(t *testing.T) {
	c := New(&Overlay{AllowedRoots: []string{"/srv/agent-workspace"}})

	v := c.CheckFileOperation("write", "/srv/agent-workspace/out.txt")
	if !v.Allowed {
		t.Errorf("expected overlay allowed root to permit write: %s", v.Reason)
	}
}

func TestReloadSwapsRules(t *testing.T) {
	c := New(nil)

	if v := c.CheckShellCommand("deploy --prod"); !v.Allowed {
		t.Fatalf("expected unknown command to be confirmation-gated, not blocked: %+v", v)
	}

	c.Reload(&Overlay{BlockedCommands: []string{"deploy --prod"}})
	if v := c.CheckShellCommand("deploy --prod"); v.Allowed {
		t.Error("expected reloaded overlay to block the command")
	}

	// Reloading with nil drops back to built-ins only.
	c.Reload(nil)
	if v := c.CheckShellCommand("deploy --prod"); !v.Allowed {
		t.Error("expected built-ins-only reload to unblock the command")
	}
}

func TestLoadOverlayMissingFile(t *testing.T) {
	o, err := LoadOverlay(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing overlay must not be an error: %v", err)
	}
	if len(o.BlockedCommands) != 0 {
		t.Error("expected empty overlay")
	}
}

func TestLoadOverlayParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	content := "blocked_commands:\n  - terraform destroy\nallowed_roots:\n  - /srv/data\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	o, err := LoadOverlay(path)
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	if len(o.BlockedCommands) != 1 || o.BlockedCommands[0] != "terraform destroy" {
		t.Errorf("unexpected blocked commands: %v", o.BlockedCommands)
	}
	if len(o.AllowedRoots) != 1 || o.AllowedRoots[0] != "/srv/data" {
		t.Errorf("unexpected allowed roots: %v", o.AllowedRoots)
	}
}
